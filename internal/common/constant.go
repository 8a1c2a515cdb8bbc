package common

// HistoryLimit is the number of uploads kept per account. Appending beyond it
// evicts the oldest record in the same operation.
const HistoryLimit = 5

// UnknownType labels equipment whose type is absent in distribution maps.
const UnknownType = "Unknown"

// BasicAuthRealm is announced in WWW-Authenticate on 401 responses.
const BasicAuthRealm = "equipview"
