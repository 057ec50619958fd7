package session

import (
	"fmt"
	"time"
)

// Имена cookie учетных данных. Токены доступны только серверу (HttpOnly),
// organization_id фронтенд читает из document.cookie по точному имени.
const (
	AccessTokenKey    = "access_token"
	RefreshTokenKey   = "refresh_token"
	OrganizationIDKey = "organization_id"
)

// ScriptReadable сообщает, должна ли cookie быть доступна JavaScript на клиенте.
func ScriptReadable(name string) bool {
	return name == OrganizationIDKey
}

// CredentialKeys - все ключи, которые удаляются при выходе.
var CredentialKeys = []string{AccessTokenKey, RefreshTokenKey, OrganizationIDKey}

type Credentials struct {
	AccessToken     string
	AccessTokenTTL  time.Duration
	RefreshToken    string
	RefreshTokenTTL time.Duration
	// OrganizationID пустой, если у пользователя нет организаций.
	OrganizationID string
}

// Issue записывает набор учетных данных после входа или обновления токенов.
func Issue(store Store, creds Credentials) error {
	if err := store.Set(AccessTokenKey, creds.AccessToken, creds.AccessTokenTTL); err != nil {
		return fmt.Errorf("failed to set %s: %w", AccessTokenKey, err)
	}
	if err := store.Set(RefreshTokenKey, creds.RefreshToken, creds.RefreshTokenTTL); err != nil {
		return fmt.Errorf("failed to set %s: %w", RefreshTokenKey, err)
	}
	if creds.OrganizationID != "" {
		if err := store.Set(OrganizationIDKey, creds.OrganizationID, creds.RefreshTokenTTL); err != nil {
			return fmt.Errorf("failed to set %s: %w", OrganizationIDKey, err)
		}
	}
	return nil
}

// Terminate удаляет все учетные данные сессии из хранилища.
// Отсутствующий ключ не является ошибкой; ошибка хранилища возвращается вызывающему.
func Terminate(store Store) error {
	for _, key := range CredentialKeys {
		if err := store.Delete(key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}
