package universe

var nasdaqLargeCaps = []string{
	"AAPL", "MSFT", "AMZN", "GOOGL", "META", "TSLA", "NVDA", "PYPL", "INTC", "CMCSA",
	"NFLX", "ADBE", "CSCO", "PEP", "AVGO", "TXN", "COST", "QCOM", "TMUS", "AMGN",
	"SBUX", "CHTR", "INTU", "ISRG", "MDLZ", "GILD", "BKNG", "AMAT", "AMD", "MU",
	"LRCX", "ADSK", "CSX", "BIIB", "ADP", "ILMN", "PDD", "JD", "MNST", "MELI",
	"KHC", "EBAY", "CTSH", "EXC", "NXPI", "VRTX", "REGN", "FI", "MRNA", "KLAC",
}

var fallbacks = map[string][]string{
	TagKOSPI:  {"005930.KS", "000660.KS", "035420.KS", "005380.KS", "051910.KS"},
	TagKOSDAQ: {"091990.KQ", "035720.KQ", "068270.KQ", "058470.KQ", "263750.KQ"},
	TagSP500:  {"AAPL", "MSFT", "AMZN", "NVDA", "GOOGL"},
	TagNASDAQ: {"AAPL", "MSFT", "AMZN", "GOOGL", "NVDA"},
}
