package cam

// Authorize lets the property's landlord or one of its managers through.
// Callers run it before invoking the engine, settings or persister.
func Authorize(property *Property, userID string) error {
	if property == nil {
		return &NotFoundError{Kind: "property"}
	}
	if userID != "" {
		if property.LandlordUserID == userID {
			return nil
		}
		for _, m := range property.ManagerUserIDs {
			if m == userID {
				return nil
			}
		}
	}
	return &AccessDeniedError{PropertyID: property.ID, UserID: userID}
}
