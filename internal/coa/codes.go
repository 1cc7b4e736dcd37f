package coa

// Well-known account codes. The seed migration provisions these rows; the
// resolver falls back to the misc codes when a category has no mapping so a
// configuration gap never blocks a business operation.
const (
	CodeCashOnHand  = "1101"
	CodePettyCash   = "1102"
	CodeBankGeneric = "1110"
	CodeAR          = "1201"
	CodeInventory   = "1301"
	CodeInputPPN    = "1401"
	CodePrepaidPPh  = "1402"

	CodeAP         = "2101"
	CodeOutputPPN  = "2102"
	CodePPhPayable = "2103"

	CodeSalesRevenue = "4101"
	CodeCOGS         = "5101"

	CodeFreightExpense   = "6101"
	CodeCustomsExpense   = "6102"
	CodeRegulatoryFees   = "6103"
	CodeSalariesExpense  = "6201"
	CodeRentExpense      = "6202"
	CodeUtilitiesExpense = "6203"
	CodeMarketingExpense = "6204"
	CodeTransportExpense = "6205"
	CodeBankCharges      = "6301"
	CodeMiscExpense      = "6900"
)

// expenseCategoryCodes maps expense categories to P&L account codes. A lookup
// table instead of cascading conditionals: adding a category without a
// mapping is caught by TestEveryCategoryMapped, not in production.
var expenseCategoryCodes = map[string]string{
	"freight":             CodeFreightExpense,
	"customs_duty":        CodeCustomsExpense,
	"clearing_forwarding": CodeFreightExpense,
	"port_charges":        CodeFreightExpense,
	"container_handling":  CodeFreightExpense,
	"transportation":      CodeTransportExpense,
	"bpom_ski":            CodeRegulatoryFees,
	"regulatory":          CodeRegulatoryFees,
	"ppn_import":          CodeInputPPN,
	"pph_import":          CodePrepaidPPh,
	"salaries":            CodeSalariesExpense,
	"rent":                CodeRentExpense,
	"utilities":           CodeUtilitiesExpense,
	"marketing":           CodeMarketingExpense,
	"bank_charges":        CodeBankCharges,
	"other":               CodeMiscExpense,
}

// ExpenseCategories lists the categories the resolver recognises.
func ExpenseCategories() []string {
	out := make([]string, 0, len(expenseCategoryCodes))
	for category := range expenseCategoryCodes {
		out = append(out, category)
	}
	return out
}
