package common

// Device-facing payloads packed to JSON for the UI layer.

type DeviceStageUser struct {
	ID           string `json:"id"`
	IsLocal      bool   `json:"isLocal"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	IsModerator  bool   `json:"isModerator"`
	IsHandRaised bool   `json:"isHandRaised"`
	Audio        bool   `json:"audio"`
}

type DeviceStageState struct {
	Current          *DeviceStageUser   `json:"current"`
	Stage            []*DeviceStageUser `json:"stage"`
	Audience         []*DeviceStageUser `json:"audience"`
	RaisedHandsCount int                `json:"raisedHandsCount"`
}

type DevicePresenceUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Avatar  string `json:"avatar"`
	Role    string `json:"role"`
	IsLocal bool   `json:"isLocal"`
}

type DevicePresenceState struct {
	Users []*DevicePresenceUser `json:"users"`
	Count int                   `json:"count"`
}
