// Package credentials keeps the registry login sealed at rest with XChaCha20-Poly1305 and
// hands out plaintext only for the duration of a registry session.
//
// Values are stored in the administrator settings table under
// "registry.<tournament>.email" and "registry.<tournament>.password", with
// "registry.email" and "registry.password" as the global fallback.
package credentials
