package schema

import "scandex/internal/domain"

// DefaultSchemas returns the built-in schemas seeded into an empty schema
// directory on first run.
func DefaultSchemas() []*IndexSchema {
	general := NewBuilder("general", "General document indexing").
		Dropdown("document_type", []string{"Invoice", "Receipt", "Contract", "Letter", "Report", "Other"}, domain.RoleFolder, true).
		Date("date", domain.RoleFilename, true).
		Text("description", domain.RoleFilename, true).
		Text("notes", domain.RoleMetadata, false).
		FilenameTemplate("{date}_{description}").
		MustBuild()

	business := NewBuilder("business", "Business document management").
		Dropdown("department", []string{"HR", "Finance", "Legal", "Operations", "Marketing", "IT"}, domain.RoleFolder, true).
		Dropdown("document_type", []string{"Invoice", "Purchase Order", "Contract", "Policy", "Memo", "Report"}, domain.RoleFolder, true).
		Date("date", domain.RoleFilename, true).
		Text("vendor_client", domain.RoleFilename, false).
		Number("amount", domain.RoleMetadata, false).
		Text("reference_number", domain.RoleFilename, false).
		FilenameTemplate("{date}_{reference_number}_{vendor_client}").
		MustBuild()

	legal := NewBuilder("legal", "Legal document organization").
		Text("case_number", domain.RoleFolder, true).
		Dropdown("document_type", []string{"Pleading", "Discovery", "Correspondence", "Contract", "Brief", "Order", "Other"}, domain.RoleFolder, true).
		Date("date", domain.RoleFilename, true).
		Text("party", domain.RoleFilename, false).
		Text("attorney", domain.RoleMetadata, false).
		Boolean("confidential", domain.RoleMetadata, false).
		FilenameTemplate("{date}_{party}").
		MustBuild()

	medical := NewBuilder("medical", "Medical records management").
		Text("patient_id", domain.RoleFolder, true).
		Date("date", domain.RoleFilename, true).
		Text("provider", domain.RoleFilename, false).
		Text("diagnosis", domain.RoleMetadata, false).
		Boolean("confidential", domain.RoleMetadata, false, WithDefault("true")).
		FilenameTemplate("{date}_{provider}").
		MustBuild()

	personal := NewBuilder("personal", "Personal document filing").
		Dropdown("category", []string{"Financial", "Insurance", "Medical", "Legal", "Education", "Personal", "Home", "Auto"}, domain.RoleFolder, true).
		Text("document_type", domain.RoleFolder, true).
		Date("date", domain.RoleFilename, true).
		Text("description", domain.RoleFilename, true).
		Boolean("important", domain.RoleMetadata, false).
		FilenameTemplate("{date}_{description}").
		MustBuild()

	return []*IndexSchema{general, business, legal, medical, personal}
}
