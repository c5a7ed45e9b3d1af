// SPDX-License-Identifier: MPL-2.0

package release

import "os"

// Environment variables read by the release pipeline.
const (
	EnvCertificateChain   = "CERTIFICATE_CHAIN"
	EnvPrivateKey         = "PRIVATE_KEY"
	EnvPrivateKeyPassword = "PRIVATE_KEY_PASSWORD"
	EnvPublishToken       = "PUBLISH_TOKEN"
)

type (
	// LookupEnv reads one environment variable, like os.LookupEnv.
	LookupEnv func(key string) (string, bool)

	// SigningCredentials are passed to the signer as found in the
	// environment. Absent values stay empty.
	SigningCredentials struct {
		CertificateChain string
		PrivateKey       string
		Password         string
	}

	// PublishCredentials authorize an upload to the given channels.
	PublishCredentials struct {
		Token    string
		Channels []string
	}
)

// Complete reports whether all three signing values are present.
func (c SigningCredentials) Complete() bool {
	return c.CertificateChain != "" && c.PrivateKey != "" && c.Password != ""
}

// IsEmpty reports whether no signing value is present.
func (c SigningCredentials) IsEmpty() bool {
	return c.CertificateChain == "" && c.PrivateKey == "" && c.Password == ""
}

// SigningCredentialsFromEnv reads the signing variables through lookup.
// A nil lookup reads the process environment.
func SigningCredentialsFromEnv(lookup LookupEnv) SigningCredentials {
	get := getter(lookup)
	return SigningCredentials{
		CertificateChain: get(EnvCertificateChain),
		PrivateKey:       get(EnvPrivateKey),
		Password:         get(EnvPrivateKeyPassword),
	}
}

// PublishTokenFromEnv reads PUBLISH_TOKEN through lookup.
func PublishTokenFromEnv(lookup LookupEnv) string {
	return getter(lookup)(EnvPublishToken)
}

func getter(lookup LookupEnv) func(string) string {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return func(key string) string {
		v, _ := lookup(key)
		return v
	}
}
