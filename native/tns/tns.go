// Package tns implements the name service. Names are normalised to lower
// case before every check and before storage, so lookups are case
// insensitive.
package tns

import (
	"regexp"
	"strings"

	"toschain/config"
	"toschain/core/errors"
	"toschain/core/types"
)

var (
	validNameRE            = regexp.MustCompile(`^[a-z][a-z0-9._-]*$`)
	consecutiveSeparatorRE = regexp.MustCompile(`[._-]{2}`)
)

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// isConfusingName flags names that read like addresses, bare numbers, or
// contain known phishing keywords.
func isConfusingName(name string) bool {
	if strings.HasPrefix(name, "tos1") || strings.HasPrefix(name, "tst1") || strings.HasPrefix(name, "0x") {
		return true
	}
	if isDigits(name) {
		return true
	}
	for _, keyword := range config.PhishingKeywords {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}

// VerifyEphemeralMessage rejects the reserved ephemeral message type. The
// id exists in the type table but the name service carries no messages.
func VerifyEphemeralMessage(tx *types.Transaction) error {
	return errors.Errorf(errors.CodeInvalidType, "unsupported tns tx type %d", tx.Type)
}

// VerifyRegisterName checks a name registration.
func VerifyRegisterName(st *types.ChainState, tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.RegisterNamePayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "register_name payload expected")
	}
	name := p.Name
	if len(name) < config.MinNameLength {
		return errors.Errorf(errors.CodeInvalidFormat, "name too short (min %d)", config.MinNameLength)
	}
	if len(name) > config.MaxNameLength {
		return errors.Errorf(errors.CodeInvalidFormat, "name too long (max %d)", config.MaxNameLength)
	}

	normalized := strings.ToLower(name)
	if c := normalized[0]; c < 'a' || c > 'z' {
		return errors.New(errors.CodeInvalidPayload, "name must start with a letter")
	}
	switch normalized[len(normalized)-1] {
	case '.', '-', '_':
		return errors.New(errors.CodeInvalidPayload, "name cannot end with separator")
	}
	if !validNameRE.MatchString(normalized) {
		return errors.New(errors.CodeInvalidPayload, "name contains invalid characters")
	}
	if consecutiveSeparatorRE.MatchString(normalized) {
		return errors.New(errors.CodeInvalidPayload, "name has consecutive separators")
	}
	if _, reserved := config.ReservedNames[normalized]; reserved {
		return errors.Errorf(errors.CodeInvalidPayload, "reserved name: %s", normalized)
	}
	if isConfusingName(normalized) {
		return errors.Errorf(errors.CodeInvalidPayload, "confusing name: %s", normalized)
	}
	if tx.Fee < config.RegistrationFee {
		return errors.Errorf(errors.CodeInsufficientFee,
			"registration fee too low (required %d, got %d)", config.RegistrationFee, tx.Fee)
	}
	if _, taken := st.Names[normalized]; taken {
		return errors.New(errors.CodeDomainExists, "name already registered")
	}
	if _, owned := st.NamesByOwner[tx.Source]; owned {
		return errors.New(errors.CodeDomainExists, "account already has a name")
	}
	return nil
}

// ApplyRegisterName records the name for the sender.
func ApplyRegisterName(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.RegisterNamePayload)
	name := strings.ToLower(p.Name)

	st.Names[name] = &types.NameRecord{
		Name:         name,
		Owner:        tx.Source,
		RegisteredAt: st.Global.BlockHeight,
	}
	st.NamesByOwner[tx.Source] = name
	return nil
}
