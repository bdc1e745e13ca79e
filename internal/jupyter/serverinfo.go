package jupyter

import "encoding/json"

// ServerInfo is one entry of the server-info protocol: a helper script run
// through the resolved interpreter prints a JSON array describing the
// locally running notebook servers.
type ServerInfo struct {
	BaseURL     string `json:"base_url"`
	URL         string `json:"url"`
	Token       string `json:"token"`
	Hostname    string `json:"hostname"`
	NotebookDir string `json:"notebook_dir"`
	Port        int    `json:"port"`
	Secure      bool   `json:"secure"`
}

// EffectiveURL returns the address to dial, preferring base_url over the
// legacy url field.
func (s ServerInfo) EffectiveURL() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return s.URL
}

// ParseServerInfos decodes the helper script output. Malformed output yields
// (nil, false) rather than an error: the launcher keeps polling until its
// timeout instead of crashing on a partial write.
func ParseServerInfos(raw []byte) ([]ServerInfo, bool) {
	var infos []ServerInfo
	if err := json.Unmarshal(raw, &infos); err != nil {
		return nil, false
	}
	return infos, true
}
