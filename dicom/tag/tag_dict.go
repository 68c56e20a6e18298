package tag

import (
	"github.com/codeninja55/go-dcmx/dicom/vr"
)

// Well-known tags.
//
// This is not the complete PS3.6 data dictionary (over 4000 entries); it
// covers the attributes the File Meta group, the Patient/Study/Series/Image
// IODs, and the Basic Application Level Confidentiality Profile (PS3.15
// Annex E) reference. Declared as package vars, not consts, because Tag is a
// struct.
var (
	// File Meta Information group (0002,xxxx). Always explicit VR little
	// endian per Part 10, Section 7.1.
	FileMetaInformationGroupLength = New(0x0002, 0x0000)
	FileMetaInformationVersion     = New(0x0002, 0x0001)
	MediaStorageSOPClassUID        = New(0x0002, 0x0002)
	MediaStorageSOPInstanceUID     = New(0x0002, 0x0003)
	TransferSyntaxUID              = New(0x0002, 0x0010)
	ImplementationClassUID         = New(0x0002, 0x0012)
	ImplementationVersionName      = New(0x0002, 0x0013)

	// Patient Identification and Demographic Module (0010,xxxx).
	PatientName                 = New(0x0010, 0x0010)
	PatientID                   = New(0x0010, 0x0020)
	PatientBirthDate            = New(0x0010, 0x0030)
	PatientBirthTime            = New(0x0010, 0x0032)
	PatientSex                  = New(0x0010, 0x0040)
	PatientMotherBirthName      = New(0x0010, 0x1060)
	MilitaryRank                = New(0x0010, 0x1080)
	BranchOfService             = New(0x0010, 0x1081)
	OtherPatientIDs             = New(0x0010, 0x1000)
	OtherPatientNames           = New(0x0010, 0x1001)
	PatientBirthName            = New(0x0010, 0x1005)
	PatientAge                  = New(0x0010, 0x1010)
	PatientSize                 = New(0x0010, 0x1020)
	PatientWeight               = New(0x0010, 0x1030)
	MedicalRecordLocator        = New(0x0010, 0x1090)
	CountryOfResidence          = New(0x0010, 0x2150)
	RegionOfResidence           = New(0x0010, 0x2152)
	EthnicGroup                 = New(0x0010, 0x2160)
	Occupation                  = New(0x0010, 0x2180)
	PatientSpeciesDescription   = New(0x0010, 0x2201)
	PatientSexNeutered          = New(0x0010, 0x2203)
	AdditionalPatientHistory    = New(0x0010, 0x21B0)
	PatientBreedDescription     = New(0x0010, 0x2292)
	ResponsiblePerson           = New(0x0010, 0x2297)
	ResponsibleOrganization     = New(0x0010, 0x2299)
	PatientComments             = New(0x0010, 0x4000)
	PatientIdentityRemoved      = New(0x0012, 0x0062)
	PatientInstitutionResidence = New(0x0038, 0x0400)

	// SOP Common / General Identification Module (0008,xxxx).
	InstanceCreationDate               = New(0x0008, 0x0012)
	InstanceCreationTime               = New(0x0008, 0x0013)
	InstanceCreatorUID                 = New(0x0008, 0x0014)
	SOPClassUID                        = New(0x0008, 0x0016)
	SOPInstanceUID                     = New(0x0008, 0x0018)
	StudyDate                          = New(0x0008, 0x0020)
	SeriesDate                         = New(0x0008, 0x0021)
	AcquisitionDate                    = New(0x0008, 0x0022)
	ContentDate                        = New(0x0008, 0x0023)
	AcquisitionDateTime                = New(0x0008, 0x002A)
	StudyTime                          = New(0x0008, 0x0030)
	SeriesTime                         = New(0x0008, 0x0031)
	AcquisitionTime                    = New(0x0008, 0x0032)
	ContentTime                        = New(0x0008, 0x0033)
	AccessionNumber                    = New(0x0008, 0x0050)
	IssuerOfAccessionNumberSequence    = New(0x0008, 0x0051)
	Modality                           = New(0x0008, 0x0060)
	TimezoneOffsetFromUTC              = New(0x0008, 0x0201)
	InstitutionName                    = New(0x0008, 0x0080)
	InstitutionAddress                 = New(0x0008, 0x0081)
	ReferringPhysicianName             = New(0x0008, 0x0090)
	ReferringPhysicianAddress          = New(0x0008, 0x0092)
	ReferringPhysicianTelephoneNumbers = New(0x0008, 0x0094)
	ConsultingPhysicianName            = New(0x0008, 0x009C)
	StationName                        = New(0x0008, 0x1010)
	StudyDescription                   = New(0x0008, 0x1030)
	InstitutionalDepartmentName        = New(0x0008, 0x1040)
	PhysiciansOfRecord                 = New(0x0008, 0x1048)
	PerformingPhysicianName            = New(0x0008, 0x1050)
	NameOfPhysiciansReadingStudy       = New(0x0008, 0x1060)
	OperatorsName                      = New(0x0008, 0x1070)
	AdmittingDiagnosesDescription      = New(0x0008, 0x1080)
	ReferencedStudySequence            = New(0x0008, 0x1110)
	SeriesDescription                  = New(0x0008, 0x103E)
	DerivationDescription              = New(0x0008, 0x2111)

	// General Study / General Series Module (0020,xxxx).
	StudyInstanceUID  = New(0x0020, 0x000D)
	SeriesInstanceUID = New(0x0020, 0x000E)
	StudyID           = New(0x0020, 0x0010)
	SeriesNumber      = New(0x0020, 0x0011)
	InstanceNumber    = New(0x0020, 0x0013)
	ImageComments     = New(0x0020, 0x4000)

	// Request / Performed Procedure Step attributes (0032,0040,xxxx).
	RequestingPhysician              = New(0x0032, 0x1032)
	RequestingService                = New(0x0032, 0x1033)
	RequestedProcedureDescription    = New(0x0032, 0x1060)
	PerformedProcedureStepStartDate  = New(0x0040, 0x0244)
	PerformedProcedureStepStartTime  = New(0x0040, 0x0245)
	PerformedProcedureStepEndDate    = New(0x0040, 0x0250)
	PerformedProcedureStepEndTime    = New(0x0040, 0x0251)
	PerformedProcedureStepDescription = New(0x0040, 0x0254)
	RequestAttributesSequence        = New(0x0040, 0x0275)

	// Person Identification Macro, used within content-item sequences
	// (0040,Axxx).
	PersonName             = New(0x0040, 0xA123)
	PersonAddress           = New(0x0040, 0x1102)
	PersonTelephoneNumbers  = New(0x0040, 0x1103)

	// Text observations (Basic Text SR, retired overlay/curve text).
	TextComments = New(0x4008, 0x0108)
	TextString   = New(0x2030, 0x0020)

	// Current location and audit trail attributes.
	CurrentPatientLocation    = New(0x0038, 0x0300)
	ModifiedAttributesSequence = New(0x0400, 0x0550)
	OriginalAttributesSequence = New(0x0400, 0x0561)
	DigitalSignaturesSequence  = New(0xFFFA, 0xFFFA)

	// General Equipment Module (0008,0018,xxxx).
	DeviceSerialNumber = New(0x0018, 0x1000)
	ProtocolName       = New(0x0018, 0x1030)

	// Image Pixel Module (0028,xxxx / 7FE0,xxxx).
	SamplesPerPixel           = New(0x0028, 0x0002)
	PhotometricInterpretation = New(0x0028, 0x0004)
	PlanarConfiguration       = New(0x0028, 0x0006)
	NumberOfFrames            = New(0x0028, 0x0008)
	Rows                      = New(0x0028, 0x0010)
	Columns                   = New(0x0028, 0x0011)
	BitsAllocated             = New(0x0028, 0x0100)
	BitsStored                = New(0x0028, 0x0101)
	HighBit                   = New(0x0028, 0x0102)
	PixelRepresentation       = New(0x0028, 0x0103)
	PixelData                 = New(0x7FE0, 0x0010)
	FrameComments             = New(0x0020, 0x9158)
)

// entry is shorthand used only while building TagDict below.
type entry struct {
	t       Tag
	vrs     []vr.VR
	name    string
	keyword string
	vm      string
	retired bool
}

// TagDict is the well-known tag dictionary this module ships, indexed by
// Tag. It covers the File Meta group and the IOD modules exercised by the
// parser, writer, and anonymizer; it is not the full PS3.6 dictionary.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part06.html#chapter_6
var TagDict = buildTagDict()

func buildTagDict() map[Tag]Info {
	entries := []entry{
		{FileMetaInformationGroupLength, []vr.VR{vr.UnsignedLong}, "File Meta Information Group Length", "FileMetaInformationGroupLength", "1", false},
		{FileMetaInformationVersion, []vr.VR{vr.OtherByte}, "File Meta Information Version", "FileMetaInformationVersion", "1", false},
		{MediaStorageSOPClassUID, []vr.VR{vr.UniqueIdentifier}, "Media Storage SOP Class UID", "MediaStorageSOPClassUID", "1", false},
		{MediaStorageSOPInstanceUID, []vr.VR{vr.UniqueIdentifier}, "Media Storage SOP Instance UID", "MediaStorageSOPInstanceUID", "1", false},
		{TransferSyntaxUID, []vr.VR{vr.UniqueIdentifier}, "Transfer Syntax UID", "TransferSyntaxUID", "1", false},
		{ImplementationClassUID, []vr.VR{vr.UniqueIdentifier}, "Implementation Class UID", "ImplementationClassUID", "1", false},
		{ImplementationVersionName, []vr.VR{vr.ShortString}, "Implementation Version Name", "ImplementationVersionName", "1", false},

		{PatientName, []vr.VR{vr.PersonName}, "Patient's Name", "PatientName", "1", false},
		{PatientID, []vr.VR{vr.LongString}, "Patient ID", "PatientID", "1", false},
		{PatientBirthDate, []vr.VR{vr.Date}, "Patient's Birth Date", "PatientBirthDate", "1", false},
		{PatientBirthTime, []vr.VR{vr.Time}, "Patient's Birth Time", "PatientBirthTime", "1", false},
		{PatientSex, []vr.VR{vr.CodeString}, "Patient's Sex", "PatientSex", "1", false},
		{PatientMotherBirthName, []vr.VR{vr.PersonName}, "Patient's Mother's Birth Name", "PatientMotherBirthName", "1", false},
		{MilitaryRank, []vr.VR{vr.LongString}, "Military Rank", "MilitaryRank", "1", false},
		{BranchOfService, []vr.VR{vr.LongString}, "Branch of Service", "BranchOfService", "1", false},
		{OtherPatientIDs, []vr.VR{vr.LongString}, "Other Patient IDs", "OtherPatientIDs", "1-n", true},
		{OtherPatientNames, []vr.VR{vr.PersonName}, "Other Patient Names", "OtherPatientNames", "1-n", false},
		{PatientBirthName, []vr.VR{vr.PersonName}, "Patient's Birth Name", "PatientBirthName", "1", true},
		{PatientAge, []vr.VR{vr.AgeString}, "Patient's Age", "PatientAge", "1", false},
		{PatientSize, []vr.VR{vr.DecimalString}, "Patient's Size", "PatientSize", "1", false},
		{PatientWeight, []vr.VR{vr.DecimalString}, "Patient's Weight", "PatientWeight", "1", false},
		{MedicalRecordLocator, []vr.VR{vr.LongString}, "Medical Record Locator", "MedicalRecordLocator", "1", true},
		{CountryOfResidence, []vr.VR{vr.LongString}, "Country of Residence", "CountryOfResidence", "1", false},
		{RegionOfResidence, []vr.VR{vr.LongString}, "Region of Residence", "RegionOfResidence", "1-n", false},
		{EthnicGroup, []vr.VR{vr.ShortString}, "Ethnic Group", "EthnicGroup", "1", false},
		{Occupation, []vr.VR{vr.ShortString}, "Occupation", "Occupation", "1", false},
		{PatientSpeciesDescription, []vr.VR{vr.LongString}, "Patient Species Description", "PatientSpeciesDescription", "1", false},
		{PatientSexNeutered, []vr.VR{vr.CodeString}, "Patient's Sex Neutered", "PatientSexNeutered", "1", false},
		{AdditionalPatientHistory, []vr.VR{vr.LongText}, "Additional Patient History", "AdditionalPatientHistory", "1", false},
		{PatientBreedDescription, []vr.VR{vr.LongString}, "Patient Breed Description", "PatientBreedDescription", "1", false},
		{ResponsiblePerson, []vr.VR{vr.PersonName}, "Responsible Person", "ResponsiblePerson", "1", false},
		{ResponsibleOrganization, []vr.VR{vr.LongString}, "Responsible Organization", "ResponsibleOrganization", "1", false},
		{PatientComments, []vr.VR{vr.LongText}, "Patient Comments", "PatientComments", "1", false},
		{PatientIdentityRemoved, []vr.VR{vr.CodeString}, "Patient Identity Removed", "PatientIdentityRemoved", "1", false},
		{PatientInstitutionResidence, []vr.VR{vr.LongString}, "Patient's Institution Residence", "PatientInstitutionResidence", "1", false},

		{InstanceCreationDate, []vr.VR{vr.Date}, "Instance Creation Date", "InstanceCreationDate", "1", false},
		{InstanceCreationTime, []vr.VR{vr.Time}, "Instance Creation Time", "InstanceCreationTime", "1", false},
		{InstanceCreatorUID, []vr.VR{vr.UniqueIdentifier}, "Instance Creator UID", "InstanceCreatorUID", "1", false},
		{SOPClassUID, []vr.VR{vr.UniqueIdentifier}, "SOP Class UID", "SOPClassUID", "1", false},
		{SOPInstanceUID, []vr.VR{vr.UniqueIdentifier}, "SOP Instance UID", "SOPInstanceUID", "1", false},
		{StudyDate, []vr.VR{vr.Date}, "Study Date", "StudyDate", "1", false},
		{SeriesDate, []vr.VR{vr.Date}, "Series Date", "SeriesDate", "1", false},
		{AcquisitionDate, []vr.VR{vr.Date}, "Acquisition Date", "AcquisitionDate", "1", false},
		{ContentDate, []vr.VR{vr.Date}, "Content Date", "ContentDate", "1", false},
		{AcquisitionDateTime, []vr.VR{vr.DateTime}, "Acquisition DateTime", "AcquisitionDateTime", "1", false},
		{StudyTime, []vr.VR{vr.Time}, "Study Time", "StudyTime", "1", false},
		{SeriesTime, []vr.VR{vr.Time}, "Series Time", "SeriesTime", "1", false},
		{AcquisitionTime, []vr.VR{vr.Time}, "Acquisition Time", "AcquisitionTime", "1", false},
		{ContentTime, []vr.VR{vr.Time}, "Content Time", "ContentTime", "1", false},
		{AccessionNumber, []vr.VR{vr.ShortString}, "Accession Number", "AccessionNumber", "1", false},
		{IssuerOfAccessionNumberSequence, []vr.VR{vr.SequenceOfItems}, "Issuer of Accession Number Sequence", "IssuerOfAccessionNumberSequence", "1", false},
		{Modality, []vr.VR{vr.CodeString}, "Modality", "Modality", "1", false},
		{TimezoneOffsetFromUTC, []vr.VR{vr.ShortString}, "Timezone Offset From UTC", "TimezoneOffsetFromUTC", "1", false},
		{InstitutionName, []vr.VR{vr.LongString}, "Institution Name", "InstitutionName", "1", false},
		{InstitutionAddress, []vr.VR{vr.ShortText}, "Institution Address", "InstitutionAddress", "1", false},
		{ReferringPhysicianName, []vr.VR{vr.PersonName}, "Referring Physician's Name", "ReferringPhysicianName", "1", false},
		{ReferringPhysicianAddress, []vr.VR{vr.ShortText}, "Referring Physician's Address", "ReferringPhysicianAddress", "1", false},
		{ReferringPhysicianTelephoneNumbers, []vr.VR{vr.ShortString}, "Referring Physician's Telephone Numbers", "ReferringPhysicianTelephoneNumbers", "1-n", false},
		{ConsultingPhysicianName, []vr.VR{vr.PersonName}, "Consulting Physician's Name", "ConsultingPhysicianName", "1-n", false},
		{StationName, []vr.VR{vr.ShortString}, "Station Name", "StationName", "1", false},
		{StudyDescription, []vr.VR{vr.LongString}, "Study Description", "StudyDescription", "1", false},
		{InstitutionalDepartmentName, []vr.VR{vr.LongString}, "Institutional Department Name", "InstitutionalDepartmentName", "1", false},
		{PhysiciansOfRecord, []vr.VR{vr.PersonName}, "Physician(s) of Record", "PhysiciansOfRecord", "1-n", false},
		{PerformingPhysicianName, []vr.VR{vr.PersonName}, "Performing Physician's Name", "PerformingPhysicianName", "1-n", false},
		{NameOfPhysiciansReadingStudy, []vr.VR{vr.PersonName}, "Name of Physician(s) Reading Study", "NameOfPhysiciansReadingStudy", "1-n", false},
		{OperatorsName, []vr.VR{vr.PersonName}, "Operators' Name", "OperatorsName", "1-n", false},
		{AdmittingDiagnosesDescription, []vr.VR{vr.LongString}, "Admitting Diagnoses Description", "AdmittingDiagnosesDescription", "1-n", false},
		{ReferencedStudySequence, []vr.VR{vr.SequenceOfItems}, "Referenced Study Sequence", "ReferencedStudySequence", "1", false},
		{SeriesDescription, []vr.VR{vr.LongString}, "Series Description", "SeriesDescription", "1", false},
		{DerivationDescription, []vr.VR{vr.ShortText}, "Derivation Description", "DerivationDescription", "1", false},

		{StudyInstanceUID, []vr.VR{vr.UniqueIdentifier}, "Study Instance UID", "StudyInstanceUID", "1", false},
		{SeriesInstanceUID, []vr.VR{vr.UniqueIdentifier}, "Series Instance UID", "SeriesInstanceUID", "1", false},
		{StudyID, []vr.VR{vr.ShortString}, "Study ID", "StudyID", "1", false},
		{SeriesNumber, []vr.VR{vr.IntegerString}, "Series Number", "SeriesNumber", "1", false},
		{InstanceNumber, []vr.VR{vr.IntegerString}, "Instance Number", "InstanceNumber", "1", false},
		{ImageComments, []vr.VR{vr.LongText}, "Image Comments", "ImageComments", "1", false},

		{RequestingPhysician, []vr.VR{vr.PersonName}, "Requesting Physician", "RequestingPhysician", "1", false},
		{RequestingService, []vr.VR{vr.LongString}, "Requesting Service", "RequestingService", "1", false},
		{RequestedProcedureDescription, []vr.VR{vr.LongString}, "Requested Procedure Description", "RequestedProcedureDescription", "1", false},
		{PerformedProcedureStepStartDate, []vr.VR{vr.Date}, "Performed Procedure Step Start Date", "PerformedProcedureStepStartDate", "1", false},
		{PerformedProcedureStepStartTime, []vr.VR{vr.Time}, "Performed Procedure Step Start Time", "PerformedProcedureStepStartTime", "1", false},
		{PerformedProcedureStepEndDate, []vr.VR{vr.Date}, "Performed Procedure Step End Date", "PerformedProcedureStepEndDate", "1", false},
		{PerformedProcedureStepEndTime, []vr.VR{vr.Time}, "Performed Procedure Step End Time", "PerformedProcedureStepEndTime", "1", false},
		{PerformedProcedureStepDescription, []vr.VR{vr.LongString}, "Performed Procedure Step Description", "PerformedProcedureStepDescription", "1", false},
		{RequestAttributesSequence, []vr.VR{vr.SequenceOfItems}, "Request Attributes Sequence", "RequestAttributesSequence", "1", false},

		{PersonName, []vr.VR{vr.PersonName}, "Person Name", "PersonName", "1", false},
		{PersonAddress, []vr.VR{vr.ShortText}, "Person's Address", "PersonAddress", "1", false},
		{PersonTelephoneNumbers, []vr.VR{vr.LongString}, "Person's Telephone Numbers", "PersonTelephoneNumbers", "1-n", false},

		{TextComments, []vr.VR{vr.LongText}, "Text Comments", "TextComments", "1", true},
		{TextString, []vr.VR{vr.ShortText}, "Text String", "TextString", "1", true},

		{CurrentPatientLocation, []vr.VR{vr.LongString}, "Current Patient Location", "CurrentPatientLocation", "1", false},
		{ModifiedAttributesSequence, []vr.VR{vr.SequenceOfItems}, "Modified Attributes Sequence", "ModifiedAttributesSequence", "1", false},
		{OriginalAttributesSequence, []vr.VR{vr.SequenceOfItems}, "Original Attributes Sequence", "OriginalAttributesSequence", "1", false},
		{DigitalSignaturesSequence, []vr.VR{vr.SequenceOfItems}, "Digital Signatures Sequence", "DigitalSignaturesSequence", "1", false},

		{DeviceSerialNumber, []vr.VR{vr.LongString}, "Device Serial Number", "DeviceSerialNumber", "1", false},
		{ProtocolName, []vr.VR{vr.LongString}, "Protocol Name", "ProtocolName", "1", false},

		{SamplesPerPixel, []vr.VR{vr.UnsignedShort}, "Samples per Pixel", "SamplesPerPixel", "1", false},
		{PhotometricInterpretation, []vr.VR{vr.CodeString}, "Photometric Interpretation", "PhotometricInterpretation", "1", false},
		{PlanarConfiguration, []vr.VR{vr.UnsignedShort}, "Planar Configuration", "PlanarConfiguration", "1", false},
		{NumberOfFrames, []vr.VR{vr.IntegerString}, "Number of Frames", "NumberOfFrames", "1", false},
		{Rows, []vr.VR{vr.UnsignedShort}, "Rows", "Rows", "1", false},
		{Columns, []vr.VR{vr.UnsignedShort}, "Columns", "Columns", "1", false},
		{BitsAllocated, []vr.VR{vr.UnsignedShort}, "Bits Allocated", "BitsAllocated", "1", false},
		{BitsStored, []vr.VR{vr.UnsignedShort}, "Bits Stored", "BitsStored", "1", false},
		{HighBit, []vr.VR{vr.UnsignedShort}, "High Bit", "HighBit", "1", false},
		{PixelRepresentation, []vr.VR{vr.UnsignedShort}, "Pixel Representation", "PixelRepresentation", "1", false},
		{PixelData, []vr.VR{vr.OtherByte, vr.OtherWord}, "Pixel Data", "PixelData", "1", false},
		{FrameComments, []vr.VR{vr.LongText}, "Frame Comments", "FrameComments", "1", true},
	}

	dict := make(map[Tag]Info, len(entries))
	for _, e := range entries {
		dict[e.t] = Info{
			Tag:     e.t,
			VRs:     e.vrs,
			Name:    e.name,
			Keyword: e.keyword,
			VM:      e.vm,
			Retired: e.retired,
		}
	}
	return dict
}
