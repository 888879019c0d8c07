package promptfmt

// Tag and attribute names. Prompts and in-context instructions refer to these
// names, so changing one is a compatibility break for downstream prompts.
const (
	TagMemoryArchive = "memory_archive"
	TagInstruction   = "instruction"
	TagMemory        = "memory"

	TagParticipants = "participants"
	TagParticipant  = "participant"
	TagName         = "name"
	TagPronouns     = "pronouns"
	TagGuildInfo    = "guild_info"
	TagRoles        = "roles"
	TagRole         = "role"
	TagAbout        = "about"
	TagNote         = "note"

	TagMessage = "message"

	TagCrossChannel   = "cross_channel_history"
	TagChannelHistory = "channel_history"
	TagLocation       = "location"

	AttrID        = "id"
	AttrTimestamp = "timestamp"
	AttrRelative  = "relative"
	AttrActive    = "active"
	AttrDisplay   = "display"
	AttrUsername  = "username"
	AttrColor     = "color"
	AttrJoined    = "joined"
	AttrRole      = "role"
	AttrFrom      = "from"
	AttrTime      = "time"
	AttrForwarded = "forwarded"
	AttrType      = "type"
	AttrGuild     = "guild"
	AttrChannel   = "channel"
)

// MemoryInstruction tells the model the archive holds past records, not live
// turns. Without it models answer archived messages as if they were just sent.
const MemoryInstruction = "The following memories are archived historical records from earlier " +
	"interactions. They are not part of the current conversation. Use them as background " +
	"knowledge only: do not reply to them, do not treat them as new messages, and do not " +
	"assume anything in them is happening now."

// DefaultExampleName is the example speaker used in the attribution note when
// no active participant name is available.
const DefaultExampleName = "Alice"
