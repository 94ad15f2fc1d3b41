// Package services implements the account and list logic of the to-do service.
//
// # Identity
//
// [IdentityService] is the identity resolver: it registers and authenticates
// local accounts (bcrypt password hashes) and finds or creates accounts for
// external provider ids.
//
// Every way of signing in implements [IdentityProvider]:
//   - [LocalProvider] : username and password
//   - [OAuthProvider] : Google or Facebook authorization code exchange
//
// The set is closed; [models.Providers] lists every key.
//
// # Lists
//
// [ListService] owns the only domain logic: seed an empty list with the
// [OnboardingItems], append one item, and remove every copy of an item.
//
// # Error Handling
//
// Services return sentinel errors from the shared package:
//   - [shared.ErrDuplicateUser] : username already registered
//   - [shared.ErrInvalidCredentials] : unknown username or wrong password
//   - [shared.ErrAuthFailed] : provider exchange or profile lookup failed
//   - [shared.ErrPersistence] : the store failed
package services
