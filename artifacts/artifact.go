// Package artifacts reads compiled contract artifacts as written by Hardhat
// (artifacts/<source>/<Contract>.json) and resolves them into deployable templates.
package artifacts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/tidwall/gjson"

	"github.com/tranvictor/fixturearmy"
)

// Parse reads a single artifact. Foundry style artifacts, whose bytecode is an
// object with an "object" field, are accepted too.
func Parse(data []byte) (*fixturearmy.Template, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed json", ErrInvalidArtifact)
	}

	fields := gjson.GetManyBytes(data, "contractName", "sourceName", "abi", "bytecode", "linkReferences")
	name, source, abiField, bytecodeField, links := fields[0], fields[1], fields[2], fields[3], fields[4]

	if name.String() == "" {
		return nil, fmt.Errorf("%w: missing contractName", ErrInvalidArtifact)
	}
	if !abiField.IsArray() {
		return nil, fmt.Errorf("%w: %s: missing abi", ErrInvalidArtifact, name.String())
	}

	parsedABI, err := abi.JSON(strings.NewReader(abiField.Raw))
	if err != nil {
		return nil, errors.Join(ErrInvalidArtifact, fmt.Errorf("%s: couldn't parse abi: %w", name.String(), err))
	}

	if bytecodeField.IsObject() {
		bytecodeField = bytecodeField.Get("object")
	}
	bytecodeHex := bytecodeField.String()
	if bytecodeHex == "" || bytecodeHex == "0x" {
		return nil, fmt.Errorf("%w: %s", ErrNoBytecode, name.String())
	}
	if links.IsObject() && len(links.Map()) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnlinkedLibraries, name.String())
	}
	if !strings.HasPrefix(bytecodeHex, "0x") {
		bytecodeHex = "0x" + bytecodeHex
	}

	bytecode, err := hexutil.Decode(bytecodeHex)
	if err != nil {
		return nil, errors.Join(ErrInvalidArtifact, fmt.Errorf("%s: couldn't decode bytecode: %w", name.String(), err))
	}

	return &fixturearmy.Template{
		Name:       name.String(),
		SourceName: source.String(),
		ABI:        parsedABI,
		Bytecode:   bytecode,
	}, nil
}

// identify reads the contract and source name of an artifact that failed to parse
func identify(data []byte) (name, source string) {
	fields := gjson.GetManyBytes(data, "contractName", "sourceName")
	return fields[0].String(), fields[1].String()
}
