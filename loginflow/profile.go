package loginflow

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/jrsteele09/go-google-login/internal/errors"
	"github.com/xeipuuv/gojsonschema"
)

// UserProfile is the provider's user-info resource.
type UserProfile struct {
	ID            string  `json:"id"`
	Avatar        *string `json:"avatar,omitempty"`
	Username      string  `json:"username"`
	Discriminator string  `json:"discriminator"`
	Email         *string `json:"email,omitempty"`
}

const profileSchemaJSON = `{
	"type": "object",
	"required": ["id", "username", "discriminator"],
	"properties": {
		"id":            {"type": "string"},
		"username":      {"type": "string"},
		"discriminator": {"type": "string"},
		"avatar":        {"type": ["string", "null"]},
		"email":         {"type": ["string", "null"]}
	}
}`

var profileSchema = mustLoadSchema(profileSchemaJSON)

func mustLoadSchema(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid profile schema: %v", err))
	}
	return s
}

// DecodeProfile validates body against the profile schema and decodes it.
// Unknown fields are ignored.
func DecodeProfile(body []byte) (*UserProfile, error) {
	result, err := profileSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, apperrors.Kind(apperrors.ErrDeserialization, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return nil, fmt.Errorf("%w: %s", apperrors.ErrDeserialization, strings.Join(problems, "; "))
	}

	var profile UserProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, apperrors.Kind(apperrors.ErrDeserialization, err)
	}
	return &profile, nil
}
