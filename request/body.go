package request

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

func setBody(request *http.Request, requestBody *requestBody, requestFile *requestFile) {
	hasBody := requestBody != nil
	hasMultipartFile := requestFile != nil && len(requestFile.path) > 0
	if !hasBody && !hasMultipartFile {
		return
	}
	hasMultipartBody := requestBody != nil && len(requestBody.part) > 0

	// Plaintext body only
	if hasBody && !hasMultipartBody && !hasMultipartFile {
		request.Body = io.NopCloser(strings.NewReader(requestBody.data))
		return
	}

	bodyBuffer := &bytes.Buffer{}
	writer := multipart.NewWriter(bodyBuffer)

	if hasMultipartFile {
		file, err := os.Open(requestFile.path)
		if err != nil {
			log.WithError(err).Error("can not open file for upload")
			return
		}
		defer file.Close()

		part, err := writer.CreateFormFile(requestFile.part, requestFile.name)
		if err != nil {
			log.WithError(err).Error("can not create form file")
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			log.WithError(err).Error("can not copy file into form")
			return
		}
	}
	if hasMultipartBody {
		if err := writer.WriteField(requestBody.part, requestBody.data); err != nil {
			log.WithError(err).Error("set body error")
			return
		}
	}
	if err := writer.Close(); err != nil {
		log.WithError(err).Error("can not close multipart writer")
		return
	}
	request.Body = io.NopCloser(bodyBuffer)
	request.Header.Set("Content-Type", writer.FormDataContentType())
}
