package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/getmockd/specimport/pkg/auth"
	"github.com/getmockd/specimport/pkg/cli/internal/parse"
	"github.com/getmockd/specimport/pkg/portability"
)

// promptAuth asks the user for credentials. Tests replace it.
var promptAuth = runAuthForm

// resolveAuth builds the AuthConfig for one collection: interactively when
// asked, otherwise from --auth and --auth-param.
func resolveAuth(interactive bool, kind string, params []string, hostname string, det portability.AuthDetection) (auth.Config, error) {
	if interactive {
		return promptAuth(det, hostname)
	}

	values, err := parse.Params(params)
	if err != nil {
		return nil, err
	}
	cfg, err := auth.New(kind, values, hostname)
	if err != nil {
		return nil, err
	}
	if err := auth.Validate(cfg); err != nil {
		return nil, fmt.Errorf("%w (pass it with --auth-param)", err)
	}
	return cfg, nil
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

// runAuthForm shows the detected schemes, lets the user pick a kind and then
// collects that kind's fields. Secrets are masked.
func runAuthForm(det portability.AuthDetection, hostname string) (auth.Config, error) {
	kind := string(auth.KindNone)
	if det.HasAuth {
		switch det.AuthType {
		case portability.AuthTypeBearer:
			kind = string(auth.KindBearer)
		case portability.AuthTypeAPIKey, portability.AuthTypeHeader:
			kind = string(auth.KindAPIKey)
		}
	}

	description := "No authentication was detected in this document."
	if det.HasAuth {
		description = "Detected: " + describeAuth(&det)
	}

	options := []huh.Option[string]{
		huh.NewOption("No authentication", string(auth.KindNone)),
		huh.NewOption("API key header", string(auth.KindAPIKey)),
		huh.NewOption("Bearer token", string(auth.KindBearer)),
		huh.NewOption("Basic (username / password)", string(auth.KindBasic)),
		huh.NewOption("Custom header", string(auth.KindCustom)),
	}
	if len(det.Schemes) > 0 {
		options = append(options, huh.NewOption("Use a declared scheme as-is", string(auth.KindDetected)))
	}

	first := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("How should requests authenticate?").
				Description(description).
				Options(options...).
				Value(&kind),
			huh.NewInput().
				Title("Hostname override (optional)").
				Placeholder("api.staging.example.com").
				Value(&hostname),
		),
	)
	if err := first.Run(); err != nil {
		return nil, err
	}

	params := map[string]string{}
	var fields []huh.Field
	// bindings copy form values into params once the form completes.
	var bindings []func()
	input := func(name, title string, secret bool) {
		var v string
		in := huh.NewInput().Title(title).Validate(required(title))
		if secret {
			in = in.EchoMode(huh.EchoModePassword)
		}
		fields = append(fields, in.Value(&v))
		bindings = append(bindings, func() { params[name] = v })
	}

	switch auth.Kind(kind) {
	case auth.KindAPIKey:
		key := "X-API-Key"
		if det.Header != "" {
			key = det.Header
		}
		fields = append(fields, huh.NewInput().Title("Header name").Value(&key).Validate(required("Header name")))
		bindings = append(bindings, func() { params["key"] = key })
		input("value", "API key", true)
	case auth.KindBearer:
		input("token", "Token", true)
	case auth.KindBasic:
		input("username", "Username", false)
		var password string
		fields = append(fields, huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password))
		bindings = append(bindings, func() { params["password"] = password })
	case auth.KindCustom:
		input("header", "Header name", false)
		input("value", "Header value", true)
	case auth.KindDetected:
		scheme := det.Schemes[0].Name
		opts := make([]huh.Option[string], 0, len(det.Schemes))
		for _, s := range det.Schemes {
			opts = append(opts, huh.NewOption(s.Name+" ("+s.Description+")", s.Name))
		}
		fields = append(fields, huh.NewSelect[string]().Title("Scheme").Options(opts...).Value(&scheme))
		bindings = append(bindings, func() { params["scheme"] = scheme })
	}

	if len(fields) > 0 {
		if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
			return nil, err
		}
		for _, bind := range bindings {
			bind()
		}
	}

	cfg, err := auth.New(kind, params, strings.TrimSpace(hostname))
	if err != nil {
		return nil, err
	}
	if err := auth.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
