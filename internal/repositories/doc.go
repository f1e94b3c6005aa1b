// Package repositories implements SQLite persistence on top of the schema applied by shared.RunMigrations.
//
// [SettingsRepository] is a key/value store over the settings table. It holds Google client
// credentials entered at runtime and the calendar OAuth token, serialized as JSON under [KeyOAuthTokens].
package repositories
