package admin

import (
	"strings"
	"time"

	"camionback/models"
)

// legalUpdated is the publication date of the current documents.
var legalUpdated = time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)

// GetLegalSections returns all legal documents.
func (s *DefaultAdminService) GetLegalSections() []models.LegalSection {
	return []models.LegalSection{
		{
			ID:       "cgu",
			Title:    "Conditions générales d'utilisation",
			Summary:  "Les règles d'utilisation de la plateforme CamionBack.",
			Content:  termsOfService(),
			Audience: models.RoleNone,
			Version:  "v1.0",
			Updated:  legalUpdated,
		},
		{
			ID:       "privacy",
			Title:    "Politique de confidentialité",
			Summary:  "Les données que CamionBack collecte et leur usage.",
			Content:  privacyPolicy(),
			Audience: models.RoleNone,
			Version:  "v1.0",
			Updated:  legalUpdated,
		},
		{
			ID:       "client",
			Title:    "Conditions client",
			Summary:  "Commande, paiement et annulation d'un transport.",
			Content:  clientTerms(),
			Audience: models.RoleClient,
			Version:  "v1.0",
			Updated:  legalUpdated,
		},
		{
			ID:       "transporteur",
			Title:    "Charte transporteur",
			Summary:  "Engagements des transporteurs validés par CamionBack.",
			Content:  transporterCharter(),
			Audience: models.RoleTransporter,
			Version:  "v1.0",
			Updated:  legalUpdated,
		},
	}
}

// GetLegalSectionsFor returns legal documents relevant to the specified role.
func (s *DefaultAdminService) GetLegalSectionsFor(role models.Role) []models.LegalSection {
	var filtered []models.LegalSection
	for _, section := range s.GetLegalSections() {
		if section.Audience == models.RoleNone || section.Audience == role || role.Staff() {
			filtered = append(filtered, section)
		}
	}
	return filtered
}

func termsOfService() string {
	return strings.TrimSpace(`
1. CamionBack met en relation des clients ayant des marchandises à transporter avec des transporteurs professionnels.
2. Chaque compte est lié à un numéro de téléphone unique. Vous êtes responsable de la confidentialité de votre mot de passe.
3. Toute commande est qualifiée par un coordinateur CamionBack avant d'être proposée aux transporteurs.
4. CamionBack peut suspendre un compte en cas de fraude, d'impayé ou de comportement contraire à la présente charte.
5. Les litiges sont signalés depuis l'application et traités par l'équipe CamionBack.`)
}

func privacyPolicy() string {
	return strings.TrimSpace(`
CamionBack collecte votre nom, votre ville, votre numéro de téléphone et, pour les transporteurs, les informations du véhicule.
Ces données servent uniquement à l'exécution des transports, à la facturation et aux notifications de service (application, SMS).
Les photos de marchandises et reçus de paiement sont hébergés chez notre prestataire de stockage.
Vous pouvez demander la suppression de votre compte à tout moment auprès du support.`)
}

func clientTerms() string {
	return strings.TrimSpace(`
- Le prix affiché inclut la commission CamionBack.
- Le paiement est effectué après l'attribution du transport, sur la base de la facture émise par CamionBack.
- Le reçu de virement doit être téléversé dans l'application. Il est vérifié par un administrateur.
- Une commande peut être annulée tant qu'elle n'est pas terminée. Une note est demandée en fin de mission.`)
}

func transporterCharter() string {
	return strings.TrimSpace(`
- Seuls les transporteurs validés peuvent manifester leur intérêt ou proposer une offre.
- Le transporteur s'engage à respecter la date et les conditions de chargement convenues.
- Le montant affiché au transporteur est net de commission.
- Les retours à vide déclarés doivent correspondre à des trajets réels.`)
}
