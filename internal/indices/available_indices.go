package indices

// Available returns the codes of every catalog index whose required roles
// are all present in m, in catalog order.
func Available(m RoleMapping) []string {
	if len(m) == 0 {
		return []string{}
	}
	out := []string{}
	for _, d := range catalog {
		if len(missingRoles(d, m)) == 0 {
			out = append(out, d.Name)
		}
	}
	return out
}

func missingRoles(d Definition, m RoleMapping) []Role {
	var missing []Role
	for _, r := range d.Roles {
		if !m.Has(r) {
			missing = append(missing, r)
		}
	}
	return missing
}
