package validator

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

// FieldErrors - ошибки валидации по имени поля, в порядке проверки.
type FieldErrors map[string][]string

type Validator struct {
	Errors FieldErrors
}

func New() *Validator {
	return &Validator{Errors: make(FieldErrors)}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

func (v *Validator) AddError(field, message string) {
	v.Errors[field] = append(v.Errors[field], message)
}

// Check добавляет сообщение, если условие не выполнено. Проверки не прерываются
// на первой ошибке.
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// emailRX повторяет синтаксис адреса, который принимает фронтенд: локальная
// часть из букв, цифр и _'+-. не заканчивается точкой, домен состоит из меток
// через точку, TLD - минимум две латинские буквы.
var emailRX = regexp.MustCompile(`(?i)^[a-z0-9_'+\-.]*[a-z0-9_+\-]@([a-z0-9][a-z0-9\-]*\.)+[a-z]{2,}$`)

func IsEmail(value string) bool {
	if strings.HasPrefix(value, ".") || strings.Contains(value, "..") {
		return false
	}
	return emailRX.MatchString(value)
}

// MinUTF16Length считает длину в кодовых единицах UTF-16, как фронтенд:
// символ вне BMP (например, эмодзи) занимает две единицы.
func MinUTF16Length(value string, n int) bool {
	length := 0
	for _, r := range value {
		if size := len(utf16.Encode([]rune{r})); size > 0 {
			length += size
		} else {
			length++
		}
	}
	return length >= n
}

// MaxBytes ограничивает длину в байтах UTF-8.
func MaxBytes(value string, n int) bool {
	return len(value) <= n
}

// HasMixedCaseAndDigit проверяет наличие строчной и заглавной латинской буквы
// и цифры. Как и шаблон на фронтенде, смотрит только до первого перевода строки.
func HasMixedCaseAndDigit(value string) bool {
	var lower, upper, digit bool
	for _, r := range value {
		if isLineTerminator(r) {
			break
		}
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return lower && upper && digit
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029'
}

func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

func MaxLength(value string, n int) bool {
	return len([]rune(value)) <= n
}
