// Package handshake implements an ephemeral Ristretto255 key agreement which produces a pair of synchronized ring
// ciphers for each party, one for sending and one for receiving.
//
// Both parties may also hold a pre-shared key. The handshake is equivalent to the "NNpsk0" pattern from the
// [Noise Protocol Framework]:
//
//	NNpsk0:
//	-> psk, e
//	<- e, ee
//
// Without a pre-shared key the handshake is unauthenticated and offers no protection against an active attacker.
//
// [Noise Protocol Framework]: http://www.noiseprotocol.org/noise.html#protocol-names-and-modifiers
package handshake

import (
	"crypto/sha3"
	"encoding/binary"
	"errors"
	"io"

	"github.com/codahale/ring"
	"github.com/gtank/ristretto255"
)

const (
	// SaltSize is the size, in bytes, of the salt each party contributes.
	SaltSize = 16
	// KeySize is the size, in bytes, of each derived ring key.
	KeySize = 32
	// RequestSize is the size, in bytes, of the initiator's request.
	RequestSize = 32 + SaltSize
	// ResponseSize is the size, in bytes, of the responder's response.
	ResponseSize = 32 + SaltSize
	// MutationInterval is the mutation interval of the derived ciphers.
	MutationInterval = 4096
)

// ErrInvalidHandshake is returned when some aspect of the handshake is cryptographically invalid.
var ErrInvalidHandshake = errors.New("ring/handshake: invalid handshake")

// InitiatorFinish is a callback which accepts a payload from a responder and completes the handshake, returning a pair
// of ciphers for sending and receiving.
type InitiatorFinish = func(response []byte) (send, recv *ring.Cipher, err error)

// Initiate starts the handshake from the initiator role, returning a finish function, a payload, and potentially an
// error. If no error is returned, the payload should be transmitted to the responder.
func Initiate(psk []byte, rand io.Reader) (finish InitiatorFinish, request []byte, err error) {
	// Generate an ephemeral key pair and a salt.
	dIE, request, err := ephemeral(rand)
	if err != nil {
		return nil, nil, err
	}

	// Wait for the responder's response.
	finish = func(response []byte) (send, recv *ring.Cipher, err error) {
		if len(response) != ResponseSize {
			return nil, nil, ErrInvalidHandshake
		}

		// Decode the responder's ephemeral public key.
		qRE, err := ristretto255.NewIdentityElement().SetCanonicalBytes(response[:32])
		if err != nil {
			return nil, nil, ErrInvalidHandshake
		}

		// Calculate the ephemeral-ephemeral shared secret.
		iErE, err := sharedSecret(dIE, qRE)
		if err != nil {
			return nil, nil, err
		}

		// Key a cipher for each direction.
		send, err = deriveCipher(psk, iErE, request, response, "initiator")
		if err != nil {
			return nil, nil, err
		}
		recv, err = deriveCipher(psk, iErE, request, response, "responder")
		if err != nil {
			return nil, nil, err
		}
		return send, recv, nil
	}

	// Return the finish function and the initiate message.
	return finish, request, nil
}

// Respond accepts the handshake from the responder's role, given a pre-shared key, a source of random data, and the
// initiator's payload. Returns a pair of ciphers for sending and receiving, and a payload to be transmitted to the
// initiator.
func Respond(psk []byte, rand io.Reader, request []byte) (send, recv *ring.Cipher, response []byte, err error) {
	if len(request) != RequestSize {
		return nil, nil, nil, ErrInvalidHandshake
	}

	// Decode the initiator's ephemeral public key.
	qIE, err := ristretto255.NewIdentityElement().SetCanonicalBytes(request[:32])
	if err != nil {
		return nil, nil, nil, ErrInvalidHandshake
	}

	// Generate an ephemeral key pair and a salt.
	dRE, response, err := ephemeral(rand)
	if err != nil {
		return nil, nil, nil, err
	}

	// Calculate the ephemeral-ephemeral shared secret.
	iErE, err := sharedSecret(dRE, qIE)
	if err != nil {
		return nil, nil, nil, err
	}

	// Key a cipher for each direction.
	send, err = deriveCipher(psk, iErE, request, response, "responder")
	if err != nil {
		return nil, nil, nil, err
	}
	recv, err = deriveCipher(psk, iErE, request, response, "initiator")
	if err != nil {
		return nil, nil, nil, err
	}
	return send, recv, response, nil
}

// ephemeral generates an ephemeral private key and a message containing its public key followed by a random salt.
func ephemeral(rand io.Reader) (*ristretto255.Scalar, []byte, error) {
	var r [64 + SaltSize]byte
	if _, err := io.ReadFull(rand, r[:]); err != nil {
		return nil, nil, err
	}

	d, err := ristretto255.NewScalar().SetUniformBytes(r[:64])
	if err != nil {
		return nil, nil, err
	}
	q := ristretto255.NewIdentityElement().ScalarBaseMult(d)

	msg := make([]byte, 0, 32+SaltSize)
	msg = append(msg, q.Bytes()...)
	msg = append(msg, r[64:]...)
	return d, msg, nil
}

func sharedSecret(d *ristretto255.Scalar, q *ristretto255.Element) ([]byte, error) {
	x := ristretto255.NewIdentityElement().ScalarMult(d, q)
	if x.Equal(ristretto255.NewIdentityElement()) == 1 {
		return nil, ErrInvalidHandshake
	}
	return x.Bytes(), nil
}

// deriveCipher keys the cipher for messages sent by the given party. Its key is derived from the pre-shared key, the
// shared secret, and both handshake messages; its salt is the one the sending party contributed.
func deriveCipher(psk, ss, request, response []byte, sender string) (*ring.Cipher, error) {
	h := sha3.NewSHAKE128()
	for _, v := range [][]byte{[]byte("ring/handshake"), []byte(sender), psk, ss, request, response} {
		_, _ = h.Write(binary.BigEndian.AppendUint64(nil, uint64(len(v))))
		_, _ = h.Write(v)
	}

	key := make([]byte, KeySize)
	_, _ = h.Read(key)

	salt := request[32:]
	if sender == "responder" {
		salt = response[32:]
	}

	return ring.New(key, salt, MutationInterval)
}
