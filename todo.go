/*
	Project: Eco Masomo - environmental education games for schools
	Target: Primary & secondary school students (teachers and school admins manage them)
*/
package ecomasomo

/*
TODO: rate limit /users/login and /users/password-reset (per IP + per username)
TODO: admin: `addschool` cmd; School is a free string on the user for now
TODO: invalidate the leaderboard cache on award instead of waiting for the TTL ???

Games:
	- each game reports its points through PATCH /v1/profile/points once completed
	- TODO: daily cap of points per student (anti-farming)
	- TODO: points history (who awarded what & when) -> needs a `points_awards` table,
	  the increment stays a single UPDATE .. RETURNING

Portals:
	- Student: dashboard (points, level, experience), games, leaderboard of own school
	- Teacher: TODO: class leaderboard, award bonus points
	- School admin: TODO: manage teachers & students of the school

TODO: badges (level milestones, streaks)
TODO: Progressive Web App: for usage in low network areas !!!
*/
