package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/portdeveloper/get-abi-2000/etherscan"
)

type InvalidInputError struct {
	message string
}

func (e *InvalidInputError) Error() string {
	return e.message
}

type ContractNotFoundError struct {
	address string
}

func (e *ContractNotFoundError) Error() string {
	return "Contract not found at address: " + e.address
}

type UnsupportedChainError struct {
	chainID int
}

func (e *UnsupportedChainError) Error() string {
	return "Unsupported chain ID: " + strconv.Itoa(e.chainID)
}

// ABINotFoundError means neither the explorer nor the decompiler produced an ABI.
type ABINotFoundError struct {
	address string
}

func (e *ABINotFoundError) Error() string {
	return "ABI not found for address: " + e.address
}

// statusFor maps a fetch error to the HTTP status returned to clients.
func statusFor(err error) int {
	var (
		invalidInput     *InvalidInputError
		contractNotFound *ContractNotFoundError
		unsupportedChain *UnsupportedChainError
		abiNotFound      *ABINotFoundError
		forbidden        *etherscan.ForbiddenError
		status           *etherscan.StatusError
		request          *etherscan.RequestError
		read             *etherscan.ReadError
		envelope         *etherscan.EnvelopeError
		parse            *etherscan.ABIParseError
		schema           *etherscan.SchemaError
	)

	switch {
	case errors.As(err, &invalidInput), errors.As(err, &unsupportedChain):
		return http.StatusBadRequest
	case errors.As(err, &contractNotFound), errors.As(err, &abiNotFound):
		return http.StatusNotFound
	case errors.As(err, &forbidden), errors.As(err, &status), errors.As(err, &request),
		errors.As(err, &read), errors.As(err, &envelope), errors.As(err, &parse), errors.As(err, &schema):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
