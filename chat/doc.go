// Package chat orchestrates one conversational turn end to end: input
// validation, session lookup and pacing, fact extraction, the assistant
// call, reply post-processing, and session persistence.
package chat
