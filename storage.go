package common

import "github.com/teachly/teachly-mobile-common/storage"

type PublicStorage interface {
	storage.Storage
}

func SetStorage(s PublicStorage) {
	storage.Set(s)
}
