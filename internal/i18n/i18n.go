// Package i18n содержит каталог сообщений API и выбор языка ответа.
package i18n

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

const (
	// LangID: индонезийский, язык по умолчанию.
	LangID = "id"
	// LangEN: английский.
	LangEN = "en"
)

// Ключи сообщений, не связанные с ошибками валидации. Ошибки валидации
// переводятся по коду domain.InputError.
const (
	KeySuccess      = "success"
	KeyCreated      = "created"
	KeyNotFound     = "order_not_found"
	KeySystemError  = "system_error"
	KeyUnauthorized = "unauthorized"
	KeyForbidden    = "forbidden"
	KeyNotRoute     = "route_not_found"
)

var messages = map[string]map[string]string{
	LangID: {
		KeySuccess:                              "Success",
		KeyCreated:                              "Berhasil membuat pesanan!",
		KeyNotFound:                             "Pesanan tidak ditemukan!",
		KeySystemError:                          "Terjadi Kesalahan Sistem!",
		KeyUnauthorized:                         "Tidak terautentikasi",
		KeyForbidden:                            "Akses ditolak",
		KeyNotRoute:                             "Halaman tidak ditemukan",
		"fields_required":                       "Harap isi semua field",
		"date_invalid":                          "Tanggal tidak valid",
		"date_in_past":                          "Tanggal tidak boleh kurang dari hari ini",
		"items_format_invalid":                  "Format pesanan tidak valid",
		"items_empty":                           "Pesanan tidak boleh kosong",
		"partner_not_found":                     "Partner tidak ditemukan",
		"product_not_found":                     "Produk tidak ditemukan",
		statusKey(domain.OrderStatusUpcoming):   "Mendatang",
		statusKey(domain.OrderStatusInProgress): "Dalam Proses",
		statusKey(domain.OrderStatusDone):       "Selesai",
	},
	LangEN: {
		KeySuccess:                              "Success",
		KeyCreated:                              "Order created successfully!",
		KeyNotFound:                             "Order not found!",
		KeySystemError:                          "A system error occurred!",
		KeyUnauthorized:                         "Unauthorized",
		KeyForbidden:                            "Forbidden",
		KeyNotRoute:                             "Route not found",
		"fields_required":                       "Please fill in all fields",
		"date_invalid":                          "Invalid date",
		"date_in_past":                          "Date must not be earlier than today",
		"items_format_invalid":                  "Invalid order items format",
		"items_empty":                           "Order items must not be empty",
		"partner_not_found":                     "Partner not found",
		"product_not_found":                     "Product not found",
		statusKey(domain.OrderStatusUpcoming):   "Upcoming",
		statusKey(domain.OrderStatusInProgress): "In progress",
		statusKey(domain.OrderStatusDone):       "Done",
	},
}

func statusKey(status domain.OrderStatus) string {
	return "status." + string(status)
}

// Localizer выбирает язык ответа и переводит ключи сообщений.
type Localizer struct {
	fallback  string
	supported []string
	matcher   language.Matcher
}

// NewLocalizer создаёт Localizer с языком по умолчанию fallback.
// Неизвестный fallback заменяется на LangID.
func NewLocalizer(fallback string) *Localizer {
	fallback = strings.ToLower(strings.TrimSpace(fallback))
	if _, ok := messages[fallback]; !ok {
		fallback = LangID
	}

	// Первый тег матчера используется при отсутствии совпадений.
	supported := []string{fallback}
	for _, lang := range []string{LangID, LangEN} {
		if lang != fallback {
			supported = append(supported, lang)
		}
	}
	tags := make([]language.Tag, 0, len(supported))
	for _, lang := range supported {
		tags = append(tags, language.MustParse(lang))
	}

	return &Localizer{
		fallback:  fallback,
		supported: supported,
		matcher:   language.NewMatcher(tags),
	}
}

// Fallback возвращает язык по умолчанию.
func (l *Localizer) Fallback() string {
	return l.fallback
}

// Detect выбирает язык: явный параметр запроса важнее заголовка Accept-Language.
func (l *Localizer) Detect(explicit, acceptLanguage string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if tag, err := language.Parse(explicit); err == nil {
			if lang, ok := l.match(tag); ok {
				return lang
			}
		}
	}

	if strings.TrimSpace(acceptLanguage) == "" {
		return l.fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return l.fallback
	}
	if lang, ok := l.match(tags...); ok {
		return lang
	}
	return l.fallback
}

func (l *Localizer) match(tags ...language.Tag) (string, bool) {
	_, index, confidence := l.matcher.Match(tags...)
	if confidence == language.No {
		return "", false
	}
	return l.supported[index], true
}

// T возвращает сообщение на языке lang. Нет перевода на lang: берётся язык
// по умолчанию, нет и его: возвращается сам ключ.
func (l *Localizer) T(lang, key string) string {
	if msg, ok := messages[lang][key]; ok {
		return msg
	}
	if msg, ok := messages[l.fallback][key]; ok {
		return msg
	}
	return key
}

// StatusLabel возвращает человекочитаемое название статуса заказа.
func (l *Localizer) StatusLabel(lang string, status domain.OrderStatus) string {
	key := statusKey(status)
	if msg := l.T(lang, key); msg != key {
		return msg
	}
	return string(status)
}
