package log

const (
	// FldFile is the name of the log field for storing file name information
	FldFile = "file"
	// FldPath is the name of the log field for storing path name information
	FldPath = "path"
	// FldTransport is the name of the log field for storing a transport name
	FldTransport = "transport"
	// FldSession is the name of the log field for storing the session ID
	FldSession = "session"
	// FldUser is the name of the log field for storing the ID of the currently active user
	FldUser = "user"
	// FldVersion is the version number of the application
	FldVersion = "ver"
	// FldID is the ID of an entity used in the log entry
	FldID = "id"
	// FldEvent is the ID of the event an entry relates to
	FldEvent = "event"
	// FldOwner is the ID of the user owning the entities worked on
	FldOwner = "owner"
	// FldDate is a calendar date ("YYYY-MM-DD") used in the log entry
	FldDate = "date"
)
