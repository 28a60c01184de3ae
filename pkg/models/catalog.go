package models

// Fixed catalogs used by the form selects. These mirror the server-side
// master data and are not fetched at runtime.

const (
	PrimaryTag   = "Primary"
	SecondaryTag = "Secondary"
	NotAppTag    = "N/A"
)

const (
	LocationCustomer = "customer"
	LocationOffice   = "office"
)

var Competencies = []string{
	"Intern", "Apprentice", "C1", "C2", "C3", "C4", "C5", "C6", "C7", "C8", "C9", "C10",
}

var PrimaryRoles = []string{
	"Data Scientist",
	"Data Engineer",
	"ML Engineer",
	"Data Analyst",
	"AI Architect",
	"Platform Engineer",
	"Analytics Engineer",
	"Business Intelligence Developer",
	"Research Scientist",
}

var Industries = []string{
	"Banking", "Insurance", "Other Fin Services", "FinOps", "Education Tech",
	"IT Platform Vendors (Hi-Tech)", "IT Services Providers", "Media", "Entertainment",
	"Retail supermarts", "eRetailer", "CPG mfg & sellers", "Logistics",
	"Other Manufacturing", "Large Industrial Mfg", "Energy", "Utilities",
	"Healthcare providers", "Healthcare insurance", "Lifesciences", "Pharma & drugs",
	"Agri sciences", "Other Professional Services", "Any others",
}

var SelfAssessments = []string{"Basic", "Intermediate", "Advanced"}

var PrimarySecondaryTags = []string{PrimaryTag, SecondaryTag, NotAppTag}
