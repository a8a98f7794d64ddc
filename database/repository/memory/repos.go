package memory

import "camionback/database/repository"

// NewRepos returns a fresh, empty set of in-memory repositories.
func NewRepos() repository.Repos {
	return repository.Repos{
		Users:         NewUserRepo(),
		Requests:      NewRequestRepo(),
		Offers:        NewOfferRepo(),
		Contracts:     NewContractRepo(),
		Notifications: NewNotificationRepo(),
		Ratings:       NewRatingRepo(),
		Catalog:       NewCatalogRepo(),
		Audit:         NewAuditRepo(),
		Reports:       NewReportRepo(),
		Transporters:  NewTransporterRepo(),
		Counters:      NewSequence(),
	}
}
