package datafile

import (
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/Trellmor/opendkim-genkeys/internal/errors"
)

// keyringScheme prefixes API registry parameters whose value lives in the
// OS keyring instead of the flat file: keyring:<service>/<account>.
const keyringScheme = "keyring:"

// SecretResolver resolves an external credential reference. The default
// implementation uses the OS keyring (Secret Service, Keychain, ...).
type SecretResolver func(service, account string) (string, error)

// KeyringResolver resolves credentials through the OS keyring.
func KeyringResolver(service, account string) (string, error) {
	return keyring.Get(service, account)
}

// LoadAPIs reads the DNS API registry into a name-to-parameters map and
// guarantees the reserved "null" entry exists. Parameters of the form
// keyring:<service>/<account> are replaced with the credential fetched
// through resolve; a failed lookup is a configuration error since the
// backend would otherwise receive a bogus credential.
func LoadAPIs(path string, resolve SecretResolver) (map[string][]string, error) {
	if resolve == nil {
		resolve = KeyringResolver
	}

	apis := make(map[string][]string)
	rows, err := ReadTable(path)
	if err != nil {
		return nil, &errors.ConfigError{File: path, Message: "error accessing file", Err: err}
	}
	for _, row := range rows {
		params := append([]string(nil), row[1:]...)
		for i, p := range params {
			if !strings.HasPrefix(p, keyringScheme) {
				continue
			}
			ref := strings.TrimPrefix(p, keyringScheme)
			service, account, ok := strings.Cut(ref, "/")
			if !ok {
				return nil, &errors.ConfigError{
					File:    path,
					Message: fmt.Sprintf("malformed keyring reference %q, want keyring:<service>/<account>", p),
				}
			}
			secret, err := resolve(service, account)
			if err != nil {
				return nil, &errors.ConfigError{
					File:    path,
					Message: fmt.Sprintf("resolving keyring reference %q", p),
					Err:     err,
				}
			}
			params[i] = secret
		}
		apis[row[0]] = params
	}
	if _, ok := apis[NullAPI]; !ok {
		apis[NullAPI] = nil
	}
	return apis, nil
}
