package domain

// OTPCode is the single live one-time code for an email address.
// PK: email. ExpiresAt is a Unix timestamp used as the DynamoDB TTL attribute,
// so expired entries vanish without a cleanup job. At most one entry exists
// per email: issuing a new code overwrites (and thereby invalidates) the old one.
type OTPCode struct {
	Email     string `json:"email" dynamodbav:"email"`
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}
