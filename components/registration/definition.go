package registration

import (
	_ "embed"
	"fmt"
	"net/http"
	"sync"

	"github.com/goliatone/go-formpipe/pkg/model"
	"github.com/goliatone/go-formpipe/pkg/submission"
)

const (
	// StepCreateUser creates the owner account.
	StepCreateUser = "create-user"
	// StepCreateCompany creates the company owned by the new account.
	StepCreateCompany = "create-company"

	// DefaultRedirect is where a successful registration sends the user.
	DefaultRedirect = "/login"

	userPath    = "/api/auth/create/user/"
	companyPath = "/api/auth/create/company/"
	ownerKey    = "id"
)

//go:embed definition.yaml
var definitionYAML []byte

var (
	definitionOnce sync.Once
	definition     model.FormDefinition
	definitionErr  error
)

// Definition returns the registration form: owner details followed by the
// company profile.
func Definition() (model.FormDefinition, error) {
	definitionOnce.Do(func() {
		definition, definitionErr = model.LoadYAMLBytes(definitionYAML)
		if definitionErr != nil {
			definitionErr = fmt.Errorf("registration: definition: %w", definitionErr)
		}
	})
	return definition, definitionErr
}

// MustDefinition panics when the embedded definition is invalid.
func MustDefinition() model.FormDefinition {
	def, err := Definition()
	if err != nil {
		panic(err)
	}
	return def
}

// Steps returns the two writes of a registration. The company step requires
// the user id captured from the first response.
func Steps() []submission.WriteStep {
	return []submission.WriteStep{
		{
			Name:        StepCreateUser,
			Method:      http.MethodPost,
			Path:        userPath,
			Capture:     ownerKey,
			NeedsSecret: true,
			Build: func(in submission.StepInput) (any, error) {
				return userPayload{
					Email:     in.Value("email"),
					FirstName: in.Value("first_name"),
					LastName:  in.Value("last_name"),
					Role:      "user",
					Password:  in.Secret,
				}, nil
			},
		},
		{
			Name:     StepCreateCompany,
			Method:   http.MethodPost,
			Path:     companyPath,
			Requires: []string{ownerKey},
			Build: func(in submission.StepInput) (any, error) {
				return companyPayload{
					Owner:         in.Captured[ownerKey],
					LegalName:     in.Value("legalName"),
					TradeName:     in.Optional("tradeName"),
					VATNumber:     in.Optional("vatNumber"),
					IBAN:          in.Optional("iban"),
					Country:       in.Value("country"),
					StreetAddress: in.Value("street_address"),
					City:          in.Value("city"),
					StateProvince: in.Value("state_province"),
					ZipPostalCode: in.Value("zip_postal_code"),
				}, nil
			},
		},
	}
}

// Request builds the registration submission redirecting to redirect, or
// DefaultRedirect when empty.
func Request(redirect string) (submission.Request, error) {
	if redirect == "" {
		redirect = DefaultRedirect
	}
	return submission.NewRequest(redirect, Steps()...)
}

type userPayload struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	Password  string `json:"password"`
}

type companyPayload struct {
	Owner         string `json:"owner"`
	LegalName     string `json:"legalName"`
	TradeName     any    `json:"tradeName"`
	VATNumber     any    `json:"vatNumber"`
	IBAN          any    `json:"iban"`
	Country       string `json:"country"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	StateProvince string `json:"state_province"`
	ZipPostalCode string `json:"zip_postal_code"`
}
