package common

import (
	"crypto/tls"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/teachly/teachly-mobile-common/request"
)

// PublicHttpClient is the backend surface handed to the native embedding:
// the generic bridge requests plus the call endpoints JoinCall wires in.
type PublicHttpClient interface {
	request.HttpClient
	request.TokenSource
	SetCallActive(roomID string, active bool) error
	UploadVoiceNote(conversationID string, filePath string) string
}

func InsecureHttpTransport() {
	log.Warn("using insecure TLS client")
	http.DefaultTransport.(*http.Transport).TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
}

func HttpClient(
	endpoint string,
	platform string,
	version string,
	versionName string,
	buildNumber string,
) PublicHttpClient {
	return request.New(endpoint, platform, version, versionName, buildNumber)
}
