package model

import "github.com/shopspring/decimal"

func init() {
	// 金額一律以 JSON number 輸出，與儲存格式及遠端 checkout 服務一致
	decimal.MarshalJSONWithoutQuotes = true
}
