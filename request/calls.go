package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/teachly/teachly-mobile-common/storage"
)

var ErrToken = errors.New("cannot issue join token")

type JoinTokenRequest struct {
	RoomName        string `json:"roomName"`
	ParticipantName string `json:"participantName"`
	Identity        string `json:"identity"`
	IsTeacher       bool   `json:"isTeacher"`
}

// TokenSource issues per-participant join credentials for a call room.
type TokenSource interface {
	JoinToken(req JoinTokenRequest) (string, error)
}

// JoinToken asks the backend's token endpoint for a media join credential
// scoped to the room and the caller's identity/role.
func (h *HttpClientStruct) JoinToken(req JoinTokenRequest) (string, error) {
	endpoint := fmt.Sprintf("%s/v1/call/token", h.params.endpoint)

	var out struct {
		Token string `json:"token"`
		Error string `json:"error"`
	}
	if err := h.doJSON(http.MethodPost, endpoint, req, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrToken, err)
	}
	if len(out.Token) == 0 {
		msg := out.Error
		if len(msg) == 0 {
			msg = "empty token in response"
		}
		return "", fmt.Errorf("%w: %v", ErrToken, msg)
	}
	return out.Token, nil
}

// SetCallActive flips the conversation's durable "call active" flag. The
// flag is what non-call screens read to show "join call" vs "start call".
func (h *HttpClientStruct) SetCallActive(roomID string, active bool) error {
	endpoint := fmt.Sprintf("%s/v1/conversations/%s/call", h.params.endpoint, roomID)
	body := struct {
		Active bool `json:"active"`
	}{Active: active}
	if err := h.doJSON(http.MethodPatch, endpoint, body, nil); err != nil {
		return fmt.Errorf("cannot update call active flag, err = %w", err)
	}
	log.Infof("call active flag set, room=%v active=%v", roomID, active)
	return nil
}

func (h *HttpClientStruct) doJSON(method, endpoint string, in, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequest(method, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", h.params.userAgent)
	if s := storage.Get(); s != nil {
		if accessToken := s.GetString("accessToken"); len(accessToken) > 0 {
			httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))
		}
	}

	res, err := h.params.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if !success(res) {
		return fmt.Errorf("unexpected status %v: %v", res.StatusCode, string(responseBody))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(responseBody, out)
}
