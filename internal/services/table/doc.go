// Package table implements the authoritative real-time surface for a game
// session.
//
// Each room owns a full session document: entities, fog of war, initiative
// order, chat history, and map settings. Connected clients mutate it through
// WebSocket events, the room rebroadcasts the accepted change, and explicit
// saves checkpoint the document to a JSON snapshot on disk.
package table
