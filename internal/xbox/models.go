package xbox

// tokenRequest is the request envelope shared by the user-token and XSTS
// endpoints; only Properties differs between the two.
type tokenRequest struct {
	Properties   interface{} `json:"Properties"`
	RelyingParty string      `json:"RelyingParty"`
	TokenType    string      `json:"TokenType"`
}

// userTokenProperties carries the Microsoft access token as an RPS ticket
type userTokenProperties struct {
	AuthMethod string `json:"AuthMethod"`
	SiteName   string `json:"SiteName"`
	RpsTicket  string `json:"RpsTicket"`
}

// xstsProperties carries the user token into the XSTS authorization
type xstsProperties struct {
	SandboxID  string   `json:"SandboxId"`
	UserTokens []string `json:"UserTokens"`
}

// tokenResponse is the response envelope shared by both endpoints
type tokenResponse struct {
	Token         string `json:"Token"`
	DisplayClaims struct {
		Xui []struct {
			Uhs string `json:"uhs"`
		} `json:"xui"`
	} `json:"DisplayClaims"`
}

// Token is a console-identity or security token plus the user-hash claim the
// next hop requires.
type Token struct {
	Value    string
	UserHash string
}
