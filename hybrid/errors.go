package hybrid

import "errors"

// ErrContentNotFound is a fatal integrity error: the DHT holds a
// decryptable reference whose IPFS payload is absent (spec.md §4.H).
var ErrContentNotFound = errors.New("hybrid: referenced content not found in ipfs")

// ErrInvalidDecryptedReference is returned when the reference envelope's
// ciphertext decrypts with our key but the plaintext is not a well-formed
// reference envelope (corruption or adversarial data).
var ErrInvalidDecryptedReference = errors.New("hybrid: decrypted plaintext is not a reference envelope")
