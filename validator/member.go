package validator

// Тексты сообщений показываются пользователю в форме добавления участника.
const (
	MsgInvalidEmail       = "Invalid email address"
	MsgPasswordTooShort   = "Password must be at least 8 characters"
	MsgPasswordComplexity = "Password must contain at least one uppercase letter, one lowercase letter, and one number"

	PasswordMinLength = 8

	// bcrypt не принимает пароли длиннее 72 байт
	MsgPasswordTooLong = "Password must be at most 72 bytes"
	PasswordMaxBytes   = 72
)

type AddMemberInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AddMemberResult - результат валидации: либо Value, либо Errors.
type AddMemberResult struct {
	Value  AddMemberInput
	Errors FieldErrors
}

func (r AddMemberResult) OK() bool {
	return len(r.Errors) == 0
}

// ValidateAddMember проверяет email и пароль независимо друг от друга
// и собирает все ошибки.
func ValidateAddMember(input AddMemberInput) AddMemberResult {
	v := New()

	v.Check(IsEmail(input.Email), "email", MsgInvalidEmail)

	v.Check(MinUTF16Length(input.Password, PasswordMinLength), "password", MsgPasswordTooShort)
	v.Check(HasMixedCaseAndDigit(input.Password), "password", MsgPasswordComplexity)

	if !v.Valid() {
		return AddMemberResult{Errors: v.Errors}
	}
	return AddMemberResult{Value: input}
}
