package request

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/teachly/teachly-mobile-common/storage"
	"github.com/teachly/teachly-mobile-common/utils"
)

const clientId = "2_5hw1mrqx92m04kgw4kk0gswo8goc0o4g0kwkc8s0s4w8c0gk0k"
const clientSecret = "3plq5weitw0gk8gosw88cws00k40kgwco8sggkoc40sock84oc"

const unauthorized = "{\"error\":\"unauthorized\"}"
const loggedOut = "{\"error\":\"loggedOut\"}"
const errorReadBody = "{\"error\":\"errorReadBody\"}"
const emptySuccess = "{}"

type requestParams struct {
	endpoint           string
	method             string
	useAuthorizeHeader bool
	query              string
	body               *requestBody
	file               *requestFile
}

type requestFile struct {
	part string
	name string
	path string
}

type requestBody struct {
	part string
	data string
}

func (h *HttpClientStruct) makeRequest(params requestParams) string {
	accessToken := storage.Get().GetString("accessToken")
	isLogout := strings.Contains(params.endpoint, "account/logout")
	isEmptyToken := len(accessToken) == 0
	if h.params.refreshCountCall > 10 {
		return loggedOut
	}
	if isLogout && isEmptyToken {
		return loggedOut
	}
	if isEmptyToken && params.useAuthorizeHeader {
		return unauthorized
	}
	headers := map[string][]string{
		"Accept":       {"application/json"},
		"Content-Type": {"application/json"},
		"User-Agent":   {h.params.userAgent},
	}
	if params.useAuthorizeHeader {
		headers["Authorization"] = []string{fmt.Sprintf("Bearer %s", accessToken)}
	}
	parsedUrl, _ := url.Parse(params.endpoint)
	parsedUrl.RawQuery = parseQuery(params.query)
	log.Infof("📡 %v %v useAuthorizeHeader=%v", params.method, parsedUrl, params.useAuthorizeHeader)
	request := &http.Request{
		Method: params.method,
		URL:    parsedUrl,
		Header: headers,
	}
	setBody(request, params.body, params.file)
	res, err := h.params.client.Do(request)
	if err != nil {
		log.WithError(err).Error("can not do request")
		code := -1
		if res != nil {
			code = res.StatusCode
		}
		return utils.PackToJsonString(utils.H{
			"code":  code,
			"error": "errorRequest",
		})
	}
	defer res.Body.Close()
	log.Infof("📡 response code=%v method=%v parsedUrl=%v", res.StatusCode, params.method, parsedUrl)
	if res.StatusCode == http.StatusUnauthorized {
		if !h.refreshToken() {
			return unauthorized
		}
		return h.makeRequest(params)
	}
	if isLogout {
		storage.Get().Delete("accessToken")
		storage.Get().Delete("refreshToken")
	}
	responseBody, bodyReadErr := io.ReadAll(res.Body)
	if bodyReadErr != nil {
		return errorReadBody
	}
	var body utils.H
	if err := json.Unmarshal(responseBody, &body); err != nil {
		return errorReadBody
	}
	if success(res) {
		return utils.PackToJsonString(utils.H{
			"code": res.StatusCode,
			"body": body,
		})
	}

	if body["errors"] != nil {
		errs, ok := body["errors"].([]interface{})
		if ok && len(errs) > 0 {
			if errorString, ok := errs[0].(string); ok {
				return utils.PackToJsonString(utils.H{
					"code":  res.StatusCode,
					"error": errorString,
					"body":  body,
				})
			}
		}
	}
	return utils.PackToJsonString(utils.H{
		"code":  res.StatusCode,
		"error": "serverError",
		"body":  body,
	})
}

func success(r *http.Response) bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

func isNotSuccess(code float64) bool {
	return code < http.StatusOK || code >= http.StatusMultipleChoices
}
