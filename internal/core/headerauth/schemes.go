package headerauth

// Scheme tokens used by Spill.it.
const (
	// SchemeOAuth carries a provider authorization code from the UI to the API
	// during login.
	SchemeOAuth = "APPOAUTH"

	// SchemeSession carries a signed session id on every authenticated request.
	SchemeSession = "APPSESS"
)

// oauthSchema requires {code, redirectUri}; redirectUri must be an absolute URI.
var oauthSchema = []byte(`{
	"type": "object",
	"properties": {
		"code": {"type": "string", "minLength": 1},
		"redirectUri": {"type": "string", "format": "uri"}
	},
	"required": ["code", "redirectUri"],
	"additionalProperties": false
}`)

// sessionSchema requires {id, signature}; signature is a lowercase hex HMAC-SHA256.
var sessionSchema = []byte(`{
	"type": "object",
	"properties": {
		"id": {
			"type": "string",
			"format": "uuid",
			"pattern": "^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$"
		},
		"signature": {"type": "string", "pattern": "^[0-9a-f]{64}$"}
	},
	"required": ["id", "signature"],
	"additionalProperties": false
}`)

var defaultSchemes = map[string][]byte{
	SchemeOAuth:   oauthSchema,
	SchemeSession: sessionSchema,
}
