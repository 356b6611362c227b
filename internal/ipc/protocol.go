package ipc

type Request struct {
	Command string `json:"command"`
	Arg     string `json:"arg,omitempty"`
}

type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
}
