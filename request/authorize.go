package request

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/teachly/teachly-mobile-common/storage"
	"github.com/teachly/teachly-mobile-common/utils"
)

func (h *HttpClientStruct) Authorize(clientQuery string) string {
	query := fmt.Sprintf("client_id=%s&client_secret=%s", clientId, clientSecret)
	if len(clientQuery) > 0 {
		query = fmt.Sprintf("%s&%s", query, clientQuery)
	}

	endpoint := fmt.Sprintf("%s/oauth/v2/token", h.params.endpoint)
	response := h.makeRequest(requestParams{
		endpoint:           endpoint,
		method:             "GET",
		useAuthorizeHeader: false,
		query:              query,
	})
	jsonMap := utils.H{}
	if err := json.Unmarshal([]byte(response), &jsonMap); err != nil {
		return errorReadBody
	}

	statusCode, ok := jsonMap["code"].(float64)
	if !ok || isNotSuccess(statusCode) {
		return response
	}

	body, ok := jsonMap["body"].(map[string]interface{})
	if !ok || body["error"] != nil {
		return response
	}

	access, _ := body["access_token"].(string)
	refresh, _ := body["refresh_token"].(string)
	if len(access) > 0 && len(refresh) > 0 {
		storage.Get().SetString("accessToken", access)
		storage.Get().SetString("refreshToken", refresh)
		h.params.refreshCountCall = 0
		log.Info("access token stored")
		return emptySuccess
	}
	return response
}
