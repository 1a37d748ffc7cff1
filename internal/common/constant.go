package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// BurnedFileID replaces a message's file id once the Core Store reports the
// object as gone. It is terminal.
const BurnedFileID = "BURNED"

// DefaultExtension is used for attachments whose filename has no extension.
const DefaultExtension = "bin"
