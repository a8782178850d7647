package models

// Category identifies a submission kind.
type Category string

const (
	CategoryReport               Category = "report"
	CategoryBirthRegistration    Category = "birth_registration"
	CategoryLandService          Category = "land_service"
	CategoryDocumentVerification Category = "document_verification"
	CategorySocialProgram        Category = "social_program"
)

func (c Category) String() string { return string(c) }

// UploadPolicy decides what a single failed attachment does to the submission.
type UploadPolicy int

const (
	// PolicyNone marks categories that accept no attachments.
	PolicyNone UploadPolicy = iota
	// PolicyFatal aborts the submission on the first failed upload.
	PolicyFatal
	// PolicyTolerant skips failed files and keeps the rest.
	PolicyTolerant
)

func (p UploadPolicy) String() string {
	switch p {
	case PolicyFatal:
		return "fatal"
	case PolicyTolerant:
		return "tolerant"
	default:
		return "none"
	}
}

// CategorySpec is the static routing and storage description of a category.
type CategorySpec struct {
	Category    Category
	Route       string
	Table       string
	Prefix      string
	ResponseKey string
	// FileField is the multipart field carrying attachments; empty when the
	// category takes none.
	FileField string
	Bucket    string
	Policy    UploadPolicy
}

// AcceptsAttachments reports whether the category has a file field.
func (s CategorySpec) AcceptsAttachments() bool {
	return s.FileField != "" && s.Policy != PolicyNone
}

// DefaultFolder is the upload subfolder when no location hint is submitted.
const DefaultFolder = "general"

var categories = []CategorySpec{
	{
		Category:    CategoryReport,
		Route:       "/api/reports",
		Table:       "citizen_reports",
		Prefix:      "REPORT",
		ResponseKey: "report",
		FileField:   "photo",
		Bucket:      "report-photos",
		Policy:      PolicyFatal,
	},
	{
		Category:    CategoryBirthRegistration,
		Route:       "/api/birth-registrations",
		Table:       "birth_registrations",
		Prefix:      "BIRTH",
		ResponseKey: "registration",
		Policy:      PolicyNone,
	},
	{
		Category:    CategoryLandService,
		Route:       "/api/land-services",
		Table:       "land_service_requests",
		Prefix:      "LAND",
		ResponseKey: "request",
		FileField:   "documents",
		Bucket:      "land-documents",
		Policy:      PolicyTolerant,
	},
	{
		Category:    CategoryDocumentVerification,
		Route:       "/api/document-verifications",
		Table:       "document_verifications",
		Prefix:      "DOCUMENT",
		ResponseKey: "verification",
		FileField:   "attachments",
		Bucket:      "verification-documents",
		Policy:      PolicyTolerant,
	},
	{
		Category:    CategorySocialProgram,
		Route:       "/api/social-programs",
		Table:       "social_program_applications",
		Prefix:      "PROGRAM",
		ResponseKey: "application",
		FileField:   "documents",
		Bucket:      "program-documents",
		Policy:      PolicyTolerant,
	},
}

// All returns every category in registration order.
func All() []CategorySpec {
	out := make([]CategorySpec, len(categories))
	copy(out, categories)
	return out
}

// Lookup returns the CategorySpec for c.
func Lookup(c Category) (CategorySpec, bool) {
	for _, s := range categories {
		if s.Category == c {
			return s, true
		}
	}
	return CategorySpec{}, false
}

// ByPrefix returns the category whose reference prefix is prefix.
func ByPrefix(prefix string) (CategorySpec, bool) {
	for _, s := range categories {
		if s.Prefix == prefix {
			return s, true
		}
	}
	return CategorySpec{}, false
}
