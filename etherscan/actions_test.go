package etherscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionParts(t *testing.T) {
	tests := []struct {
		action Action
		module string
		name   string
	}{
		{ContractGetABI, "contract", "getabi"},
		{AccountBalanceMulti, "account", "balancemulti"},
		{TransactionGetTxReceiptStatus, "transaction", "gettxreceiptstatus"},
		{LogsGetLogs, "logs", "getLogs"},
		{StatsEthPrice, "stats", "ethprice"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.module, tt.action.Module(), string(tt.action))
		assert.Equal(t, tt.name, tt.action.Name(), string(tt.action))
	}
}
