// Generated from DICOM PS3.6 Part 6 - Data Dictionary
// DICOM Standard Version: 2024b
//
// This file contains the SOP Class UID constants referenced by this module.
// The full PS3.6 table of 320 SOP Class UIDs is available by UID string via
// Lookup, Find, and FindByName against uidMap; constants are only declared
// here for the SOP classes exercised directly by this package and its tests.

package uid

// Verification SOP Class
var VerificationSOPClass = MustParse("1.2.840.10008.1.1")

// Image Storage SOP Classes
var (
	// Computed Radiography Image Storage
	ComputedRadiographyImageStorage = MustParse("1.2.840.10008.5.1.4.1.1.1")

	// CT Image Storage
	CTImageStorage = MustParse("1.2.840.10008.5.1.4.1.1.2")

	// MR Image Storage
	MRImageStorage = MustParse("1.2.840.10008.5.1.4.1.1.4")

	// Ultrasound Image Storage
	UltrasoundImageStorage = MustParse("1.2.840.10008.5.1.4.1.1.6")

	// Secondary Capture Image Storage
	SecondaryCaptureImageStorage = MustParse("1.2.840.10008.5.1.4.1.1.7")
)

// Query/Retrieve Information Model SOP Classes
var (
	// Patient Root Query/Retrieve Information Model - FIND
	PatientRootQueryRetrieveInformationModelFind = MustParse("1.2.840.10008.5.1.4.1.2.1.1")

	// Patient Root Query/Retrieve Information Model - MOVE
	PatientRootQueryRetrieveInformationModelMove = MustParse("1.2.840.10008.5.1.4.1.2.1.2")

	// Patient Root Query/Retrieve Information Model - GET
	PatientRootQueryRetrieveInformationModelGet = MustParse("1.2.840.10008.5.1.4.1.2.1.3")

	// Study Root Query/Retrieve Information Model - FIND
	StudyRootQueryRetrieveInformationModelFind = MustParse("1.2.840.10008.5.1.4.1.2.2.1")

	// Study Root Query/Retrieve Information Model - MOVE
	StudyRootQueryRetrieveInformationModelMove = MustParse("1.2.840.10008.5.1.4.1.2.2.2")

	// Study Root Query/Retrieve Information Model - GET
	StudyRootQueryRetrieveInformationModelGet = MustParse("1.2.840.10008.5.1.4.1.2.2.3")
)

// Modality Worklist Information Model - FIND
var ModalityWorklistInformationModelFind = MustParse("1.2.840.10008.5.1.4.31")
