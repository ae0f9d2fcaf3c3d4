package etherscan

import "strings"

// Action identifies an explorer endpoint as "<module>_<action>".
type Action string

const (
	AccountBalance                Action = "account_balance"
	AccountBalanceMulti           Action = "account_balancemulti"
	AccountTxList                 Action = "account_txlist"
	AccountTxListInternal         Action = "account_txlistinternal"
	AccountTokenTx                Action = "account_tokentx"
	AccountGetMinedBlocks         Action = "account_getminedblocks"
	ContractGetABI                Action = "contract_getabi"
	TransactionGetStatus          Action = "transaction_getstatus"
	TransactionGetTxReceiptStatus Action = "transaction_gettxreceiptstatus"
	BlockGetBlockReward           Action = "block_getblockreward"
	LogsGetLogs                   Action = "logs_getLogs"
	StatsEthSupply                Action = "stats_ethsupply"
	StatsEthPrice                 Action = "stats_ethprice"
)

// Module returns the part before the first underscore.
func (a Action) Module() string {
	module, _, _ := strings.Cut(string(a), "_")
	return module
}

// Name returns the part after the first underscore.
func (a Action) Name() string {
	_, name, _ := strings.Cut(string(a), "_")
	return name
}
