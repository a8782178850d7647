package models

import "github.com/asaskevich/govalidator"

// ReportFields is a citizen issue report.
type ReportFields struct {
	Category      *string
	Description   *string
	LGA           *string
	Address       *string
	ReporterName  *string
	ReporterPhone *string
	ReporterEmail *string
	Latitude      *float64
	Longitude     *float64
}

func decodeReport(d *decoder) *ReportFields {
	return &ReportFields{
		Category:      d.text("category", maxShortText),
		Description:   d.text("description", maxLongText),
		LGA:           d.text("lga", maxShortText),
		Address:       d.text("address", maxShortText),
		ReporterName:  d.text("reporter_name", maxShortText),
		ReporterPhone: d.phone("reporter_phone"),
		ReporterEmail: d.email("reporter_email"),
		Latitude:      d.coordinate("latitude", govalidator.IsLatitude),
		Longitude:     d.coordinate("longitude", govalidator.IsLongitude),
	}
}

func (f *ReportFields) Validate() error {
	return requireFields(map[string]bool{
		"category":    f.Category != nil,
		"description": f.Description != nil,
	})
}

func (f *ReportFields) Columns() []Column {
	return []Column{
		{"category", val(f.Category)},
		{"description", val(f.Description)},
		{"lga", val(f.LGA)},
		{"address", val(f.Address)},
		{"reporter_name", val(f.ReporterName)},
		{"reporter_phone", val(f.ReporterPhone)},
		{"reporter_email", val(f.ReporterEmail)},
		{"latitude", val(f.Latitude)},
		{"longitude", val(f.Longitude)},
	}
}

func (f *ReportFields) FolderHint() string { return deref(f.LGA) }

// BirthRegistrationFields is a birth registration application.
type BirthRegistrationFields struct {
	ChildFirstName  *string
	ChildMiddleName *string
	ChildLastName   *string
	DateOfBirth     *string
	ChildGender     *string
	PlaceOfBirth    *string
	LGA             *string
	MotherName      *string
	FatherName      *string
	InformantPhone  *string
	InformantEmail  *string
}

func decodeBirthRegistration(d *decoder) *BirthRegistrationFields {
	return &BirthRegistrationFields{
		ChildFirstName:  d.text("child_first_name", maxShortText),
		ChildMiddleName: d.text("child_middle_name", maxShortText),
		ChildLastName:   d.text("child_last_name", maxShortText),
		DateOfBirth:     d.date("date_of_birth", true),
		ChildGender:     d.oneOf("child_gender", "male", "female"),
		PlaceOfBirth:    d.text("place_of_birth", maxShortText),
		LGA:             d.text("lga", maxShortText),
		MotherName:      d.text("mother_name", maxShortText),
		FatherName:      d.text("father_name", maxShortText),
		InformantPhone:  d.phone("informant_phone"),
		InformantEmail:  d.email("informant_email"),
	}
}

func (f *BirthRegistrationFields) Validate() error {
	return requireFields(map[string]bool{
		"child_first_name": f.ChildFirstName != nil,
		"child_last_name":  f.ChildLastName != nil,
		"date_of_birth":    f.DateOfBirth != nil,
		"child_gender":     f.ChildGender != nil,
	})
}

func (f *BirthRegistrationFields) Columns() []Column {
	return []Column{
		{"child_first_name", val(f.ChildFirstName)},
		{"child_middle_name", val(f.ChildMiddleName)},
		{"child_last_name", val(f.ChildLastName)},
		{"date_of_birth", val(f.DateOfBirth)},
		{"child_gender", val(f.ChildGender)},
		{"place_of_birth", val(f.PlaceOfBirth)},
		{"lga", val(f.LGA)},
		{"mother_name", val(f.MotherName)},
		{"father_name", val(f.FatherName)},
		{"informant_phone", val(f.InformantPhone)},
		{"informant_email", val(f.InformantEmail)},
	}
}

func (f *BirthRegistrationFields) FolderHint() string { return deref(f.LGA) }

// LandServiceFields is a land administration service request.
type LandServiceFields struct {
	RequestType    *string
	ApplicantName  *string
	ApplicantEmail *string
	ApplicantPhone *string
	PlotNumber     *string
	Location       *string
	LGA            *string
	Description    *string
}

func decodeLandService(d *decoder) *LandServiceFields {
	return &LandServiceFields{
		RequestType:    d.text("request_type", maxShortText),
		ApplicantName:  d.text("applicant_name", maxShortText),
		ApplicantEmail: d.email("applicant_email"),
		ApplicantPhone: d.phone("applicant_phone"),
		PlotNumber:     d.text("plot_number", maxShortText),
		Location:       d.text("location", maxShortText),
		LGA:            d.text("lga", maxShortText),
		Description:    d.text("description", maxLongText),
	}
}

func (f *LandServiceFields) Validate() error {
	return requireFields(map[string]bool{
		"request_type":   f.RequestType != nil,
		"applicant_name": f.ApplicantName != nil,
	})
}

func (f *LandServiceFields) Columns() []Column {
	return []Column{
		{"request_type", val(f.RequestType)},
		{"applicant_name", val(f.ApplicantName)},
		{"applicant_email", val(f.ApplicantEmail)},
		{"applicant_phone", val(f.ApplicantPhone)},
		{"plot_number", val(f.PlotNumber)},
		{"location", val(f.Location)},
		{"lga", val(f.LGA)},
		{"description", val(f.Description)},
	}
}

func (f *LandServiceFields) FolderHint() string { return deref(f.LGA) }

// DocumentVerificationFields is a request to verify an issued document.
type DocumentVerificationFields struct {
	DocumentType     *string
	DocumentNumber   *string
	ApplicantName    *string
	ApplicantEmail   *string
	ApplicantPhone   *string
	IssuingAuthority *string
	IssueDate        *string
	Purpose          *string
}

func decodeDocumentVerification(d *decoder) *DocumentVerificationFields {
	return &DocumentVerificationFields{
		DocumentType:     d.text("document_type", maxShortText),
		DocumentNumber:   d.text("document_number", maxShortText),
		ApplicantName:    d.text("applicant_name", maxShortText),
		ApplicantEmail:   d.email("applicant_email"),
		ApplicantPhone:   d.phone("applicant_phone"),
		IssuingAuthority: d.text("issuing_authority", maxShortText),
		IssueDate:        d.date("issue_date", true),
		Purpose:          d.text("purpose", maxLongText),
	}
}

func (f *DocumentVerificationFields) Validate() error {
	return requireFields(map[string]bool{
		"document_type":   f.DocumentType != nil,
		"document_number": f.DocumentNumber != nil,
		"applicant_name":  f.ApplicantName != nil,
	})
}

func (f *DocumentVerificationFields) Columns() []Column {
	return []Column{
		{"document_type", val(f.DocumentType)},
		{"document_number", val(f.DocumentNumber)},
		{"applicant_name", val(f.ApplicantName)},
		{"applicant_email", val(f.ApplicantEmail)},
		{"applicant_phone", val(f.ApplicantPhone)},
		{"issuing_authority", val(f.IssuingAuthority)},
		{"issue_date", val(f.IssueDate)},
		{"purpose", val(f.Purpose)},
	}
}

// FolderHint is empty: verification requests carry no location.
func (f *DocumentVerificationFields) FolderHint() string { return "" }

// SocialProgramFields is an application to a social welfare program.
type SocialProgramFields struct {
	ProgramName    *string
	ApplicantName  *string
	ApplicantPhone *string
	ApplicantEmail *string
	LGA            *string
	HouseholdSize  *int
	Notes          *string
}

func decodeSocialProgram(d *decoder) *SocialProgramFields {
	return &SocialProgramFields{
		ProgramName:    d.text("program_name", maxShortText),
		ApplicantName:  d.text("applicant_name", maxShortText),
		ApplicantPhone: d.phone("applicant_phone"),
		ApplicantEmail: d.email("applicant_email"),
		LGA:            d.text("lga", maxShortText),
		HouseholdSize:  d.positiveInt("household_size"),
		Notes:          d.text("notes", maxLongText),
	}
}

func (f *SocialProgramFields) Validate() error {
	return requireFields(map[string]bool{
		"program_name":   f.ProgramName != nil,
		"applicant_name": f.ApplicantName != nil,
	})
}

func (f *SocialProgramFields) Columns() []Column {
	return []Column{
		{"program_name", val(f.ProgramName)},
		{"applicant_name", val(f.ApplicantName)},
		{"applicant_phone", val(f.ApplicantPhone)},
		{"applicant_email", val(f.ApplicantEmail)},
		{"lga", val(f.LGA)},
		{"household_size", val(f.HouseholdSize)},
		{"notes", val(f.Notes)},
	}
}

func (f *SocialProgramFields) FolderHint() string { return deref(f.LGA) }
