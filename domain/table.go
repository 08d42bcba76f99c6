package domain

// Table is a mongo collection name.
type Table string

const (
	TableListings     Table = "listings"
	TableOffers       Table = "offers"
	TableAuctions     Table = "auctions"
	TableRoyalties    Table = "royalties"
	TableFeeConfigs   Table = "feeConfigs"
	TableReceipts     Table = "receipts"
	TableMarketEvents Table = "marketEvents"
	TableCounters     Table = "counters"
	TableHealthCheck  Table = "healthCheck"
)
