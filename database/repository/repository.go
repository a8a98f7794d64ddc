package repository

import (
	auditRepo "camionback/database/repository/audit"
	catalogRepo "camionback/database/repository/catalog"
	counterRepo "camionback/database/repository/counter"
	notificationRepo "camionback/database/repository/notification"
	offerRepo "camionback/database/repository/offer"
	ratingRepo "camionback/database/repository/rating"
	reportRepo "camionback/database/repository/report"
	requestRepo "camionback/database/repository/request"
	transporterRepo "camionback/database/repository/transporter"
	userRepo "camionback/database/repository/user"
)

// Re-export the repository interfaces so services depend on one package.
type (
	UserRepository         = userRepo.UserRepository
	RequestRepository      = requestRepo.RequestRepository
	OfferRepository        = offerRepo.OfferRepository
	ContractRepository     = offerRepo.ContractRepository
	NotificationRepository = notificationRepo.NotificationRepository
	RatingRepository       = ratingRepo.RatingRepository
	CatalogRepository      = catalogRepo.CatalogRepository
	AuditRepository        = auditRepo.AuditRepository
	ReportRepository       = reportRepo.ReportRepository
	TransporterRepository  = transporterRepo.TransporterRepository
	Sequence               = counterRepo.Sequence
	LogFilter              = auditRepo.LogFilter
)

// Repos bundles every store the services need.
type Repos struct {
	Users         UserRepository
	Requests      RequestRepository
	Offers        OfferRepository
	Contracts     ContractRepository
	Notifications NotificationRepository
	Ratings       RatingRepository
	Catalog       CatalogRepository
	Audit         AuditRepository
	Reports       ReportRepository
	Transporters  TransporterRepository
	Counters      Sequence
}

// NewMongoRepos wires every repository to the global Mongo client.
func NewMongoRepos() Repos {
	return Repos{
		Users:         userRepo.NewMongoUserRepo(),
		Requests:      requestRepo.NewMongoRequestRepo(),
		Offers:        offerRepo.NewMongoOfferRepo(),
		Contracts:     offerRepo.NewMongoContractRepo(),
		Notifications: notificationRepo.NewMongoNotificationRepo(),
		Ratings:       ratingRepo.NewMongoRatingRepo(),
		Catalog:       catalogRepo.NewMongoCatalogRepo(),
		Audit:         auditRepo.NewMongoAuditRepo(),
		Reports:       reportRepo.NewMongoReportRepo(),
		Transporters:  transporterRepo.NewMongoTransporterRepo(),
		Counters:      counterRepo.NewMongoSequence(),
	}
}
