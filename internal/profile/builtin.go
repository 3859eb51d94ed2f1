package profile

import "github.com/mozilla-services/android-sync/internal/kdf"

// builtins are always available and cannot be replaced by stored profiles.
var builtins = []Profile{
	{
		Name:        "fxa-pbkdf2",
		Algorithm:   kdf.AlgPBKDF2SHA256,
		Iterations:  20000,
		Length:      32,
		Description: "PBKDF2 stage of Firefox Accounts PBKDF2/scrypt/PBKDF2/v1 stretching",
	},
	{
		Name:        "fxa-scrypt",
		Algorithm:   kdf.AlgScrypt,
		N:           65536,
		R:           8,
		P:           1,
		Length:      32,
		Description: "scrypt stage of Firefox Accounts PBKDF2/scrypt/PBKDF2/v1 stretching",
	},
	{
		Name:        "interactive",
		Algorithm:   kdf.AlgScrypt,
		N:           1 << 15,
		R:           8,
		P:           1,
		Length:      32,
		Description: "scrypt tuned for interactive logins",
	},
	{
		Name:        "sensitive",
		Algorithm:   kdf.AlgScrypt,
		N:           1 << 18,
		R:           8,
		P:           1,
		Length:      32,
		Description: "scrypt for long-lived secrets; needs about 256 MiB",
	},
}

// Builtins returns a copy of the built-in profiles.
func Builtins() []Profile {
	out := make([]Profile, len(builtins))
	copy(out, builtins)
	return out
}

// Builtin looks up a built-in profile by name.
func Builtin(name string) (Profile, bool) {
	for _, p := range builtins {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}
