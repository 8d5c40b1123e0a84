package tns

import (
	"strings"
	"testing"

	"toschain/config"
	"toschain/core/errors"
	"toschain/core/types"
)

func testAddr(b byte) types.Address {
	var a types.Address
	for i := range a {
		a[i] = b
	}
	return a
}

var registrant = testAddr(0x01)

func seededState() *types.ChainState {
	st := types.NewChainState(config.ChainIDDevnet)
	st.Accounts[registrant] = &types.Account{Address: registrant, Balance: config.CoinValue, Nonce: 5}
	return st
}

func nameTx(name string, fee uint64) *types.Transaction {
	return &types.Transaction{
		Source:  registrant,
		Type:    types.TxRegisterName,
		Payload: &types.RegisterNamePayload{Name: name},
		Fee:     fee,
		FeeType: types.FeeTOS,
		Nonce:   5,
	}
}

func TestRegisterName(t *testing.T) {
	st := seededState()
	tx := nameTx("Alice.Shop", config.RegistrationFee)
	if err := VerifyRegisterName(st, tx); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := ApplyRegisterName(st, tx); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// Stored lower-cased.
	rec := st.Names["alice.shop"]
	if rec == nil {
		t.Fatal("name not stored")
	}
	if rec.Owner != registrant {
		t.Fatal("owner mismatch")
	}
	if st.NamesByOwner[registrant] != "alice.shop" {
		t.Fatal("reverse index missing")
	}
}

func TestNameRules(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.Code
	}{
		{"too short", "ab", errors.CodeInvalidFormat},
		{"too long", strings.Repeat("a", config.MaxNameLength+1), errors.CodeInvalidFormat},
		{"leading digit", "1abc", errors.CodeInvalidPayload},
		{"leading separator", "-abc", errors.CodeInvalidPayload},
		{"trailing separator", "abc-", errors.CodeInvalidPayload},
		{"consecutive separators", "ab--cd", errors.CodeInvalidPayload},
		{"illegal character", "ab!cd", errors.CodeInvalidPayload},
		{"reserved", "admin", errors.CodeInvalidPayload},
		{"address-like", "tos1qxyz", errors.CodeInvalidPayload},
		{"hex-like uppercase", "0Xdeadbeef", errors.CodeInvalidPayload},
		{"phishing keyword", "my-support-desk", errors.CodeInvalidPayload},
		{"valid", "alice.shop", 0},
		{"valid with digits", "node42", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyRegisterName(seededState(), nameTx(tt.input, config.RegistrationFee))
			if tt.code == 0 {
				if err != nil {
					t.Fatalf("verify %q: %v", tt.input, err)
				}
				return
			}
			if !errors.HasCode(err, tt.code) {
				t.Fatalf("%q: code = %v, want %v", tt.input, errors.CodeOf(err), tt.code)
			}
		})
	}
}

func TestRegistrationFee(t *testing.T) {
	err := VerifyRegisterName(seededState(), nameTx("alice.shop", config.RegistrationFee-1))
	if !errors.HasCode(err, errors.CodeInsufficientFee) {
		t.Fatalf("code = %v, want INSUFFICIENT_FEE", errors.CodeOf(err))
	}
}

func TestNameAlreadyTaken(t *testing.T) {
	st := seededState()
	st.Names["alice.shop"] = &types.NameRecord{Name: "alice.shop", Owner: testAddr(0x09)}

	err := VerifyRegisterName(st, nameTx("Alice.Shop", config.RegistrationFee))
	if !errors.HasCode(err, errors.CodeDomainExists) {
		t.Fatalf("code = %v, want DOMAIN_EXISTS", errors.CodeOf(err))
	}
}

func TestOnePerAccount(t *testing.T) {
	st := seededState()
	st.NamesByOwner[registrant] = "first.name"

	err := VerifyRegisterName(st, nameTx("second.name", config.RegistrationFee))
	if !errors.HasCode(err, errors.CodeDomainExists) {
		t.Fatalf("code = %v, want DOMAIN_EXISTS", errors.CodeOf(err))
	}
}
