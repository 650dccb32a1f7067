package storage

var _storage Storage

// Storage is backed by the embedding platform's secure key-value store
// (Keychain on iOS, EncryptedSharedPreferences on Android). It holds the
// account provider's access/refresh tokens.
type Storage interface {
	GetString(key string) string
	SetString(key string, value string)
	Delete(key string)
}

func Set(s Storage) {
	_storage = s
}

func Get() Storage {
	return _storage
}
